package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/cache"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
)

// CustomerService is a read side of the customer store
type CustomerService interface {
	FindByExternalID(context.Context, string) (model.Customer, error)
}

type customerService struct {
	customerRepo  repository.CustomerRepository
	customerCache cache.CustomerCache
	logger        logrus.FieldLogger
}

func NewCustomerService(customerRepo repository.CustomerRepository, customerCache cache.CustomerCache, logger logrus.FieldLogger) CustomerService {
	return &customerService{customerRepo: customerRepo, customerCache: customerCache, logger: logger}
}

func (s *customerService) FindByExternalID(ctx context.Context, externalID string) (model.Customer, error) {
	cached, err := s.customerCache.FindByExternalID(ctx, externalID)
	if err != nil {
		return model.Customer{}, err
	}

	if cached != nil {
		return *cached, nil
	}

	c, err := s.customerRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return model.Customer{}, err
	}

	if c == nil {
		return model.Customer{}, apperrors.NewEntryNotFoundErr(fmt.Sprintf("customer with external id %s doesn't exist", externalID))
	}

	if err := s.customerCache.Cache(ctx, *c); err != nil {
		s.logger.WithError(err).WithField("externalId", externalID).Warn("failed to cache customer")
	}
	return *c, nil
}
