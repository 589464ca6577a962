package infra

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/config"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/pkg/db/transactor"
	"github.com/umalmyha/customersync/pkg/keymutex"
)

// Services holds domain services wired to the configured store and cache
type Services struct {
	CustomerRepo repository.CustomerRepository
	SyncSvc      service.CustomerSyncService
	CustomerSvc  service.CustomerService
	closers      []func(context.Context) error
}

// BuildServices connects to store backend and cache, Close must be called to release connections
func BuildServices(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Services, error) {
	s := &Services{}

	customerRepo, err := s.customerRepository(ctx, cfg, logger)
	if err != nil {
		s.Close(ctx, logger)
		return nil, err
	}

	customerCache, err := s.customerCache(ctx, cfg.RedisCfg, logger)
	if err != nil {
		s.Close(ctx, logger)
		return nil, err
	}

	s.CustomerRepo = customerRepo
	s.SyncSvc = service.NewSerializedSyncService(
		service.NewCustomerSyncService(customerRepo, customerCache, logger),
		keymutex.New(),
	)
	s.CustomerSvc = service.NewCustomerService(customerRepo, customerCache, logger)
	return s, nil
}

func (s *Services) customerRepository(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (repository.CustomerRepository, error) {
	connCtx, cancel := context.WithTimeout(ctx, cfg.StoreCfg.ConnectTimeout)
	defer cancel()

	log := logger.WithField("backend", cfg.StoreCfg.Backend)

	switch cfg.StoreCfg.Backend {
	case config.StoreBackendPostgres:
		pool, err := Postgresql(connCtx, cfg.PostgresCfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error {
			pool.Close()
			return nil
		})

		log.Info("connected to customer store")
		return repository.NewPostgresCustomerRepository(transactor.NewPgxTransactor(pool)), nil
	case config.StoreBackendMongo:
		client, err := Mongodb(connCtx, cfg.MongoCfg)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, client.Disconnect)

		if err := repository.EnsureMongoIndexes(connCtx, client, cfg.MongoCfg.Database); err != nil {
			return nil, err
		}

		log.Info("connected to customer store")
		return repository.NewMongoCustomerRepository(client, cfg.MongoCfg.Database), nil
	case config.StoreBackendMemory:
		log.Warn("customers are kept in memory and lost on exit")
		return repository.NewInMemoryCustomerRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreCfg.Backend)
	}
}

func (s *Services) customerCache(ctx context.Context, cfg config.RedisCfg, logger logrus.FieldLogger) (cache.CustomerCache, error) {
	if !cfg.Enabled {
		return cache.NewNopCustomerCache(), nil
	}

	client, err := Redis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })

	logger.WithField("addr", cfg.Addr).Info("connected to customer cache")
	return cache.NewRedisCustomerCache(client, cfg.CacheTTL), nil
}

// Close releases connections in reverse order of acquiring
func (s *Services) Close(ctx context.Context, logger logrus.FieldLogger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.WithError(err).Error("failed to release connection")
		}
	}
	s.closers = nil
}
