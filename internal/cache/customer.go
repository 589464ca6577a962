package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v9"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/vmihailenco/msgpack/v5"
)

const DefaultCustomerTimeToLive = 10 * time.Minute

// CustomerCache caches customers by external id, missing entry is reported as nil customer without error.
// Cache never overwrites an entry, so a value loaded by a reader before a sync can't replace
// the one the sync has put with Refresh.
type CustomerCache interface {
	FindByExternalID(context.Context, string) (*model.Customer, error)
	Cache(context.Context, model.Customer) error
	Refresh(context.Context, []model.Customer) error
}

type redisCustomerCache struct {
	client     *redis.Client
	timeToLive time.Duration
}

func NewRedisCustomerCache(client *redis.Client, ttl time.Duration) CustomerCache {
	if ttl <= 0 {
		ttl = DefaultCustomerTimeToLive
	}
	return &redisCustomerCache{client: client, timeToLive: ttl}
}

func (r *redisCustomerCache) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	res, err := r.client.Get(ctx, r.key(externalID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var c model.Customer
	if err := msgpack.Unmarshal(res, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *redisCustomerCache) Cache(ctx context.Context, c model.Customer) error {
	if c.ExternalID == nil {
		return nil
	}

	encoded, err := msgpack.Marshal(&c)
	if err != nil {
		return err
	}

	if _, err := r.client.SetNX(ctx, r.key(*c.ExternalID), encoded, r.timeToLive).Result(); err != nil {
		return err
	}
	return nil
}

// Refresh overwrites entries in passed order, so the last customer sharing an external id wins
func (r *redisCustomerCache) Refresh(ctx context.Context, customers []model.Customer) error {
	entries := make(map[string][]byte, len(customers))
	keys := make([]string, 0, len(customers))
	for _, c := range customers {
		if c.ExternalID == nil {
			continue
		}

		encoded, err := msgpack.Marshal(&c)
		if err != nil {
			return err
		}

		key := r.key(*c.ExternalID)
		if _, ok := entries[key]; !ok {
			keys = append(keys, key)
		}
		entries[key] = encoded
	}

	if len(keys) == 0 {
		return nil
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Set(ctx, key, entries[key], r.timeToLive)
		}
		return nil
	})
	return err
}

func (r *redisCustomerCache) key(externalID string) string {
	return fmt.Sprintf("customer:%s", externalID)
}

type nopCustomerCache struct{}

// NewNopCustomerCache builds cache which never stores anything, used when caching is disabled
func NewNopCustomerCache() CustomerCache {
	return nopCustomerCache{}
}

func (nopCustomerCache) FindByExternalID(context.Context, string) (*model.Customer, error) {
	return nil, nil
}

func (nopCustomerCache) Cache(context.Context, model.Customer) error {
	return nil
}

func (nopCustomerCache) Refresh(context.Context, []model.Customer) error {
	return nil
}
