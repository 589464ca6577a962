package model

// CustomerType specifies whether customer is a person or a company
type CustomerType string

const (
	// CustomerTypePerson means customer is a private person
	CustomerTypePerson CustomerType = "PERSON"
	// CustomerTypeCompany means customer is a company
	CustomerTypeCompany CustomerType = "COMPANY"
)

// CustomerTypeOf derives customer type from presence of company number
func CustomerTypeOf(hasCompanyNumber bool) CustomerType {
	if hasCompanyNumber {
		return CustomerTypeCompany
	}
	return CustomerTypePerson
}

// Address is customer postal address
type Address struct {
	Street     string `json:"street" bson:"street" yaml:"street"`
	City       string `json:"city" bson:"city" yaml:"city"`
	PostalCode string `json:"postalCode" bson:"postalCode" yaml:"postalCode"`
}

// Customer is internal customer model entity.
// Customer values are never mutated in place, every With* method returns a modified copy.
type Customer struct {
	InternalID       *string        `json:"internalId,omitempty" bson:"-"`
	ExternalID       *string        `json:"externalId,omitempty" bson:"externalId,omitempty"`
	MasterExternalID *string        `json:"masterExternalId,omitempty" bson:"masterExternalId,omitempty"`
	CompanyNumber    *string        `json:"companyNumber,omitempty" bson:"companyNumber,omitempty"`
	Name             *string        `json:"name,omitempty" bson:"name,omitempty"`
	Address          *Address       `json:"address,omitempty" bson:"address,omitempty"`
	PreferredStore   *string        `json:"preferredStore,omitempty" bson:"preferredStore,omitempty"`
	BonusPoints      *int           `json:"bonusPoints,omitempty" bson:"bonusPoints,omitempty"`
	CustomerType     CustomerType   `json:"customerType" bson:"customerType"`
	ShoppingLists    []ShoppingList `json:"shoppingLists" bson:"shoppingLists"`
}

// IsInternal reports whether customer is already persisted in the store
func (c Customer) IsInternal() bool {
	return c.InternalID != nil
}

// IsPerson reports whether customer is a private person
func (c Customer) IsPerson() bool {
	return c.CustomerType == CustomerTypePerson
}

// IsCompany reports whether customer is a company
func (c Customer) IsCompany() bool {
	return c.CustomerType == CustomerTypeCompany
}

// SameIdentity reports whether both customers share all three weak keys:
// external id, master external id and company number
func (c Customer) SameIdentity(other Customer) bool {
	return equalPtr(c.ExternalID, other.ExternalID) &&
		equalPtr(c.MasterExternalID, other.MasterExternalID) &&
		equalPtr(c.CompanyNumber, other.CompanyNumber)
}

func (c Customer) WithInternalID(id string) Customer {
	cp := c.Clone()
	cp.InternalID = &id
	return cp
}

func (c Customer) WithExternalID(id string) Customer {
	cp := c.Clone()
	cp.ExternalID = &id
	return cp
}

func (c Customer) WithMasterExternalID(id string) Customer {
	cp := c.Clone()
	cp.MasterExternalID = &id
	return cp
}

func (c Customer) WithCompanyNumber(number *string) Customer {
	cp := c.Clone()
	cp.CompanyNumber = clonePtr(number)
	return cp
}

func (c Customer) WithName(name string) Customer {
	cp := c.Clone()
	cp.Name = &name
	return cp
}

func (c Customer) WithAddress(addr *Address) Customer {
	cp := c.Clone()
	cp.Address = clonePtr(addr)
	return cp
}

func (c Customer) WithPreferredStore(store *string) Customer {
	cp := c.Clone()
	cp.PreferredStore = clonePtr(store)
	return cp
}

func (c Customer) WithBonusPoints(points *int) Customer {
	cp := c.Clone()
	cp.BonusPoints = clonePtr(points)
	return cp
}

func (c Customer) WithCustomerType(t CustomerType) Customer {
	cp := c.Clone()
	cp.CustomerType = t
	return cp
}

func (c Customer) WithShoppingLists(lists []ShoppingList) Customer {
	cp := c.Clone()
	cp.ShoppingLists = cloneShoppingLists(lists)
	return cp
}

// Clone returns deep copy of customer
func (c Customer) Clone() Customer {
	return Customer{
		InternalID:       clonePtr(c.InternalID),
		ExternalID:       clonePtr(c.ExternalID),
		MasterExternalID: clonePtr(c.MasterExternalID),
		CompanyNumber:    clonePtr(c.CompanyNumber),
		Name:             clonePtr(c.Name),
		Address:          clonePtr(c.Address),
		PreferredStore:   clonePtr(c.PreferredStore),
		BonusPoints:      clonePtr(c.BonusPoints),
		CustomerType:     c.CustomerType,
		ShoppingLists:    cloneShoppingLists(c.ShoppingLists),
	}
}

// Ptr returns pointer to the copy of v
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences p or returns zero value if p is nil
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
