package model

import "strings"

const productsKeySeparator = "\x1f"

// ShoppingList is ordered list of products customer is going to buy
type ShoppingList struct {
	Products []string `json:"products" bson:"products" yaml:"products"`
}

// NewShoppingList builds shopping list out of products
func NewShoppingList(products ...string) ShoppingList {
	return ShoppingList{Products: append([]string(nil), products...)}
}

// Key identifies shopping list by its products, two lists with the same products in the same order share the key
func (l ShoppingList) Key() string {
	return strings.Join(l.Products, productsKeySeparator)
}

func cloneShoppingLists(lists []ShoppingList) []ShoppingList {
	if lists == nil {
		return nil
	}

	cloned := make([]ShoppingList, 0, len(lists))
	for _, l := range lists {
		cloned = append(cloned, NewShoppingList(l.Products...))
	}
	return cloned
}
