package service

import "github.com/umalmyha/customersync/internal/model"

// Synthesize builds new customer for external record which has no match in the store
func Synthesize(ext model.ExternalCustomer) model.Customer {
	return model.Customer{
		ExternalID:       model.Ptr(ext.ExternalID),
		MasterExternalID: model.Ptr(ext.ExternalID),
		CustomerType:     ext.CustomerType(),
	}
}

// MergePrimary overwrites mutable fields of the customer from external record.
// Shopping lists are appended, existing ones are never dropped.
func MergePrimary(ext model.ExternalCustomer, c model.Customer) model.Customer {
	var bonusPoints *int
	if !ext.IsCompany() {
		bonusPoints = ext.BonusPoints
	}

	lists := make([]model.ShoppingList, 0, len(c.ShoppingLists)+len(ext.ShoppingLists))
	lists = append(lists, c.ShoppingLists...)
	lists = append(lists, ext.ShoppingLists...)

	return c.
		WithName(ext.Name).
		WithCompanyNumber(ext.CompanyNumber).
		WithCustomerType(ext.CustomerType()).
		WithAddress(ext.Address).
		WithPreferredStore(ext.PreferredStore).
		WithBonusPoints(bonusPoints).
		WithShoppingLists(lists)
}

// MergeDuplicate keeps duplicate display name in line with external record, nothing else is touched
func MergeDuplicate(ext model.ExternalCustomer, duplicate model.Customer) model.Customer {
	return duplicate.WithName(ext.Name)
}

func MergeDuplicates(ext model.ExternalCustomer, duplicates []model.Customer) []model.Customer {
	merged := make([]model.Customer, 0, len(duplicates))
	for _, d := range duplicates {
		merged = append(merged, MergeDuplicate(ext, d))
	}
	return merged
}
