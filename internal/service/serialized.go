package service

import (
	"context"
	"sort"

	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/pkg/keymutex"
)

// serializedSyncService runs syncs sharing external id or company number one at a time,
// sync reads then writes without compare-and-swap so concurrent syncs of one customer are unsafe
type serializedSyncService struct {
	next  CustomerSyncService
	locks *keymutex.KeyMutex
}

func NewSerializedSyncService(next CustomerSyncService, locks *keymutex.KeyMutex) CustomerSyncService {
	return &serializedSyncService{next: next, locks: locks}
}

func (s *serializedSyncService) Sync(ctx context.Context, ext model.ExternalCustomer) (model.Action, error) {
	keys := lockKeys(ext)

	// keys are always taken in the same order, so two syncs can't wait for each other
	for i, key := range keys {
		if err := s.locks.Lock(ctx, key); err != nil {
			s.unlock(keys[:i])
			return "", err
		}
	}
	defer s.unlock(keys)

	return s.next.Sync(ctx, ext)
}

func (s *serializedSyncService) unlock(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		s.locks.Unlock(keys[i])
	}
}

// lockKeys lists every weak key the sync may read or re-key, sorted
func lockKeys(ext model.ExternalCustomer) []string {
	keys := []string{"externalId:" + ext.ExternalID}
	if ext.CompanyNumber != nil {
		keys = append(keys, "companyNumber:"+*ext.CompanyNumber)
	}
	sort.Strings(keys)
	return keys
}
