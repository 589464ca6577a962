package model

import "errors"

// ErrMissingExternalID is returned when external customer doesn't carry external id
var ErrMissingExternalID = errors.New("external customer must have non-empty external id")

// ExternalCustomer is customer record received from upstream feed, it is a source of truth for mutable fields
type ExternalCustomer struct {
	ExternalID     string         `json:"externalId" yaml:"externalId"`
	CompanyNumber  *string        `json:"companyNumber,omitempty" yaml:"companyNumber,omitempty"`
	Name           string         `json:"name" yaml:"name"`
	Address        *Address       `json:"address,omitempty" yaml:"address,omitempty"`
	PreferredStore *string        `json:"preferredStore,omitempty" yaml:"preferredStore,omitempty"`
	BonusPoints    *int           `json:"bonusPoints,omitempty" yaml:"bonusPoints,omitempty"`
	ShoppingLists  []ShoppingList `json:"shoppingLists" yaml:"shoppingLists"`
}

// IsCompany reports whether external record represents a company, presence of company number is the only signal
func (e ExternalCustomer) IsCompany() bool {
	return e.CompanyNumber != nil
}

// CustomerType derives customer type of the external record
func (e ExternalCustomer) CustomerType() CustomerType {
	return CustomerTypeOf(e.IsCompany())
}

// Validate checks invariants of external record
func (e ExternalCustomer) Validate() error {
	if e.ExternalID == "" {
		return ErrMissingExternalID
	}
	return nil
}
