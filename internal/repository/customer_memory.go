package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
)

type storedCustomer struct {
	customer  model.Customer
	writtenAt uint64
}

// InMemoryCustomerRepository keeps customers in memory, it backs the memory store backend and tests
type InMemoryCustomerRepository struct {
	mu            sync.RWMutex
	customers     map[string]storedCustomer
	shoppingLists map[string]model.ShoppingList
	writes        uint64
}

func NewInMemoryCustomerRepository(customers ...model.Customer) *InMemoryCustomerRepository {
	r := &InMemoryCustomerRepository{
		customers:     make(map[string]storedCustomer),
		shoppingLists: make(map[string]model.ShoppingList),
	}

	for _, c := range customers {
		r.Add(c)
	}
	return r
}

// Add puts customer into the store as is, customer without internal id stays without it
func (r *InMemoryCustomerRepository) Add(c model.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.Value(c.InternalID)
	if key == "" {
		key = "unassigned-" + uuid.NewString()
	}
	r.put(key, c)
}

func (r *InMemoryCustomerRepository) FindByExternalID(_ context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(func(c model.Customer) bool { return c.ExternalID != nil && *c.ExternalID == externalID }), nil
}

func (r *InMemoryCustomerRepository) FindByMasterExternalID(_ context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(func(c model.Customer) bool { return c.MasterExternalID != nil && *c.MasterExternalID == externalID }), nil
}

func (r *InMemoryCustomerRepository) FindByCompanyNumber(_ context.Context, companyNumber string) (*model.Customer, error) {
	return r.findOneBy(func(c model.Customer) bool { return c.CompanyNumber != nil && *c.CompanyNumber == companyNumber }), nil
}

// findOneBy returns the most recently written customer matching the predicate
func (r *InMemoryCustomerRepository) findOneBy(match func(model.Customer) bool) *model.Customer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *storedCustomer
	for _, sc := range r.customers {
		sc := sc
		if match(sc.customer) && (found == nil || sc.writtenAt > found.writtenAt) {
			found = &sc
		}
	}

	if found == nil {
		return nil
	}

	c := found.customer.Clone()
	return &c
}

func (r *InMemoryCustomerRepository) Create(_ context.Context, c model.Customer) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := c
	if !created.IsInternal() {
		created = c.WithInternalID(uuid.NewString())
	}

	if _, ok := r.customers[*created.InternalID]; ok {
		return model.Customer{}, fmt.Errorf("customer with internal id %s already exists", *created.InternalID)
	}

	r.put(*created.InternalID, created)
	return created.Clone(), nil
}

func (r *InMemoryCustomerRepository) Update(_ context.Context, c model.Customer) (model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !c.IsInternal() {
		return model.Customer{}, apperrors.NewEntryNotFoundErr("customer without internal id can't be updated")
	}

	if _, ok := r.customers[*c.InternalID]; !ok {
		return model.Customer{}, apperrors.NewEntryNotFoundErr(fmt.Sprintf("customer with internal id %s doesn't exist", *c.InternalID))
	}

	r.put(*c.InternalID, c)
	return c.Clone(), nil
}

func (r *InMemoryCustomerRepository) UpdateShoppingList(_ context.Context, l model.ShoppingList) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shoppingLists[l.Key()] = model.NewShoppingList(l.Products...)
	return nil
}

// FindAll returns every stored customer ordered by internal id and name
func (r *InMemoryCustomerRepository) FindAll(_ context.Context) ([]model.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customers := make([]model.Customer, 0, len(r.customers))
	for _, sc := range r.customers {
		customers = append(customers, sc.customer.Clone())
	}

	sort.Slice(customers, func(i, j int) bool {
		li, lj := model.Value(customers[i].InternalID), model.Value(customers[j].InternalID)
		if li != lj {
			return li < lj
		}
		return model.Value(customers[i].Name) < model.Value(customers[j].Name)
	})
	return customers, nil
}

// ShoppingLists returns every shopping list pushed to the store ordered by products
func (r *InMemoryCustomerRepository) ShoppingLists() []model.ShoppingList {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lists := make([]model.ShoppingList, 0, len(r.shoppingLists))
	for _, l := range r.shoppingLists {
		lists = append(lists, model.NewShoppingList(l.Products...))
	}

	sort.Slice(lists, func(i, j int) bool { return lists[i].Key() < lists[j].Key() })
	return lists
}

func (r *InMemoryCustomerRepository) put(key string, c model.Customer) {
	r.writes++
	r.customers[key] = storedCustomer{customer: c.Clone(), writtenAt: r.writes}
	for _, l := range c.ShoppingLists {
		r.shoppingLists[l.Key()] = model.NewShoppingList(l.Products...)
	}
}
