package service

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/cache"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/monitoring"
	"github.com/umalmyha/customersync/internal/repository"
)

// CustomerSyncService syncs external customer into the customer store
type CustomerSyncService interface {
	Sync(context.Context, model.ExternalCustomer) (model.Action, error)
}

type customerSyncService struct {
	resolver      *IdentityResolver
	customerRepo  repository.CustomerRepository
	customerCache cache.CustomerCache
	logger        logrus.FieldLogger
}

func NewCustomerSyncService(
	customerRepo repository.CustomerRepository,
	customerCache cache.CustomerCache,
	logger logrus.FieldLogger,
) CustomerSyncService {
	return &customerSyncService{
		resolver:      NewIdentityResolver(customerRepo),
		customerRepo:  customerRepo,
		customerCache: customerCache,
		logger:        logger,
	}
}

// Sync resolves stored customer, merges external record into it and persists result.
// Duplicates are written before the primary record and are not rolled back if primary write fails.
func (s *customerSyncService) Sync(ctx context.Context, ext model.ExternalCustomer) (model.Action, error) {
	if err := ext.Validate(); err != nil {
		return "", apperrors.NewBusinessErr("externalId", err.Error())
	}

	log := s.logger.WithFields(logrus.Fields{
		"externalId":   ext.ExternalID,
		"customerType": ext.CustomerType(),
	})

	matches, err := s.resolver.Resolve(ctx, ext)
	if err != nil {
		if apperrors.IsConflict(err) {
			monitoring.RecordConflict(string(ext.CustomerType()))
			log.WithError(err).Warn("external customer conflicts with stored customer")
		}
		return "", err
	}

	customer := Synthesize(ext)
	if matches.HasMatch() {
		customer = *matches.Customer
	}

	merged := MergePrimary(ext, customer)
	duplicates := MergeDuplicates(ext, matches.Duplicates)

	written := make([]model.Customer, 0, len(duplicates)+1)
	for _, d := range duplicates {
		stored, err := s.writeDuplicate(ctx, d)
		if err != nil {
			return "", err
		}
		written = append(written, stored)
	}

	stored, action, err := s.writeCustomer(ctx, merged)
	if err != nil {
		return "", err
	}
	written = append(written, stored)

	s.refreshCache(ctx, log, written)

	monitoring.RecordSync(string(action), string(ext.CustomerType()), len(duplicates))
	log.WithFields(logrus.Fields{"action": action, "duplicates": len(duplicates)}).Info("customer synced")

	return action, nil
}

func (s *customerSyncService) writeDuplicate(ctx context.Context, duplicate model.Customer) (model.Customer, error) {
	if duplicate.IsInternal() {
		return s.customerRepo.Update(ctx, duplicate)
	}
	return s.customerRepo.Create(ctx, duplicate)
}

func (s *customerSyncService) writeCustomer(ctx context.Context, c model.Customer) (model.Customer, model.Action, error) {
	if !c.IsInternal() {
		created, err := s.customerRepo.Create(ctx, c)
		if err != nil {
			return model.Customer{}, "", err
		}
		return created, model.ActionCreate, nil
	}

	updated, err := s.customerRepo.Update(ctx, c)
	if err != nil {
		return model.Customer{}, "", err
	}

	for _, l := range c.ShoppingLists {
		if err := s.customerRepo.UpdateShoppingList(ctx, l); err != nil {
			return model.Customer{}, "", err
		}
	}
	return updated, model.ActionUpdate, nil
}

// refreshCache puts written records into the cache in write order, store is already updated so failure is only logged
func (s *customerSyncService) refreshCache(ctx context.Context, log logrus.FieldLogger, written []model.Customer) {
	if err := s.customerCache.Refresh(ctx, written); err != nil {
		log.WithError(err).Warn("failed to refresh synced customers in cache")
	}
}
