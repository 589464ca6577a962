package service

import (
	"context"
	"fmt"

	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
)

// IdentityResolver finds stored customer matching external customer and its duplicates.
// Resolution fails with ConflictErr only, store errors are returned as is.
type IdentityResolver struct {
	customerRepo repository.CustomerRepository
}

func NewIdentityResolver(customerRepo repository.CustomerRepository) *IdentityResolver {
	return &IdentityResolver{customerRepo: customerRepo}
}

// Resolve picks resolution path by customer type of the external record
func (r *IdentityResolver) Resolve(ctx context.Context, ext model.ExternalCustomer) (model.CustomerMatches, error) {
	switch ext.CustomerType() {
	case model.CustomerTypeCompany:
		return r.resolveCompany(ctx, ext.ExternalID, *ext.CompanyNumber)
	default:
		return r.resolvePerson(ctx, ext.ExternalID)
	}
}

func (r *IdentityResolver) resolveCompany(ctx context.Context, externalID string, companyNumber string) (model.CustomerMatches, error) {
	matchByExternalID, err := r.customerRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return model.CustomerMatches{}, err
	}

	if matchByExternalID == nil {
		return r.matchByCompanyNumber(ctx, externalID, companyNumber)
	}

	if !matchByExternalID.IsCompany() {
		msg := fmt.Sprintf("Existing customer for externalCustomer %s already exists and is not a company", externalID)
		return model.CustomerMatches{}, apperrors.NewConflictErr(externalID, msg)
	}

	duplicates := make([]model.Customer, 0, 2)

	matchByMasterID, err := r.customerRepo.FindByMasterExternalID(ctx, externalID)
	if err != nil {
		return model.CustomerMatches{}, err
	}

	// record matched by master id is a duplicate only if it is a different customer
	if matchByMasterID != nil && !matchByMasterID.SameIdentity(*matchByExternalID) {
		duplicates = append(duplicates, *matchByMasterID)
	}

	if matchByExternalID.CompanyNumber != nil && *matchByExternalID.CompanyNumber == companyNumber {
		return model.CustomerMatches{Customer: matchByExternalID, Duplicates: duplicates}, nil
	}

	return model.CustomerMatches{Duplicates: append([]model.Customer{*matchByExternalID}, duplicates...)}, nil
}

func (r *IdentityResolver) matchByCompanyNumber(ctx context.Context, externalID string, companyNumber string) (model.CustomerMatches, error) {
	matchByCompanyNumber, err := r.customerRepo.FindByCompanyNumber(ctx, companyNumber)
	if err != nil {
		return model.CustomerMatches{}, err
	}

	if matchByCompanyNumber == nil {
		return model.CustomerMatches{Duplicates: make([]model.Customer, 0)}, nil
	}

	if foundID := model.Value(matchByCompanyNumber.ExternalID); foundID != "" && foundID != externalID {
		msg := fmt.Sprintf("Existing customer for externalCustomer %s doesn't match external id %s instead found %s", companyNumber, externalID, foundID)
		return model.CustomerMatches{}, apperrors.NewConflictErr(externalID, msg)
	}

	customer := matchByCompanyNumber.WithExternalID(externalID).WithMasterExternalID(externalID)
	return model.CustomerMatches{Customer: &customer, Duplicates: make([]model.Customer, 0)}, nil
}

func (r *IdentityResolver) resolvePerson(ctx context.Context, externalID string) (model.CustomerMatches, error) {
	matchByExternalID, err := r.customerRepo.FindByExternalID(ctx, externalID)
	if err != nil {
		return model.CustomerMatches{}, err
	}

	if matchByExternalID == nil {
		return model.CustomerMatches{Duplicates: make([]model.Customer, 0)}, nil
	}

	if !matchByExternalID.IsPerson() {
		msg := fmt.Sprintf("Existing customer for externalCustomer %s already exists and is not a person", externalID)
		return model.CustomerMatches{}, apperrors.NewConflictErr(externalID, msg)
	}

	return model.CustomerMatches{Customer: matchByExternalID, Duplicates: make([]model.Customer, 0)}, nil
}
