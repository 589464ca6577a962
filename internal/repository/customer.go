package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/pkg/db/transactor"
)

// CustomerRepository is a customer store, lookups return nil customer without error if nothing is found
type CustomerRepository interface {
	FindByExternalID(context.Context, string) (*model.Customer, error)
	FindByMasterExternalID(context.Context, string) (*model.Customer, error)
	FindByCompanyNumber(context.Context, string) (*model.Customer, error)
	Create(context.Context, model.Customer) (model.Customer, error)
	Update(context.Context, model.Customer) (model.Customer, error)
	UpdateShoppingList(context.Context, model.ShoppingList) error
}

const customerColumns = `id, external_id, master_external_id, company_number, name, street, city, postal_code,
	preferred_store, bonus_points, customer_type`

type postgresCustomerRepository struct {
	trx transactor.PgxTransactor
}

func NewPostgresCustomerRepository(trx transactor.PgxTransactor) CustomerRepository {
	return &postgresCustomerRepository{trx: trx}
}

func (r *postgresCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(ctx, "external_id", externalID)
}

func (r *postgresCustomerRepository) FindByMasterExternalID(ctx context.Context, externalID string) (*model.Customer, error) {
	return r.findOneBy(ctx, "master_external_id", externalID)
}

func (r *postgresCustomerRepository) FindByCompanyNumber(ctx context.Context, companyNumber string) (*model.Customer, error) {
	return r.findOneBy(ctx, "company_number", companyNumber)
}

// findOneBy returns the most recently written customer if several records share the key
func (r *postgresCustomerRepository) findOneBy(ctx context.Context, column string, value string) (*model.Customer, error) {
	q := fmt.Sprintf("SELECT %s FROM customers WHERE %s = $1 ORDER BY write_seq DESC LIMIT 1", customerColumns, column)

	c, err := r.scanRow(r.trx.Executor(ctx).QueryRow(ctx, q, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	lists, err := r.findShoppingLists(ctx, model.Value(c.InternalID))
	if err != nil {
		return nil, err
	}
	c.ShoppingLists = lists

	return &c, nil
}

func (r *postgresCustomerRepository) Create(ctx context.Context, c model.Customer) (model.Customer, error) {
	created := c
	if !created.IsInternal() {
		created = c.WithInternalID(uuid.NewString())
	}

	err := r.trx.WithinTransaction(ctx, func(ctx context.Context) error {
		street, city, postalCode := addressColumns(created.Address)
		q := `INSERT INTO customers(` + customerColumns + `)
			  VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

		_, err := r.trx.Executor(ctx).Exec(ctx, q, created.InternalID, created.ExternalID, created.MasterExternalID,
			created.CompanyNumber, created.Name, street, city, postalCode, created.PreferredStore, created.BonusPoints,
			string(created.CustomerType))
		if err != nil {
			return err
		}

		return r.replaceShoppingLists(ctx, model.Value(created.InternalID), created.ShoppingLists)
	})
	if err != nil {
		return model.Customer{}, err
	}

	return created, nil
}

func (r *postgresCustomerRepository) Update(ctx context.Context, c model.Customer) (model.Customer, error) {
	if !c.IsInternal() {
		return model.Customer{}, apperrors.NewEntryNotFoundErr("customer without internal id can't be updated")
	}

	err := r.trx.WithinTransaction(ctx, func(ctx context.Context) error {
		street, city, postalCode := addressColumns(c.Address)
		q := `UPDATE customers SET external_id = $2, master_external_id = $3, company_number = $4, name = $5, street = $6,
			  city = $7, postal_code = $8, preferred_store = $9, bonus_points = $10, customer_type = $11, updated_at = now(),
			  write_seq = nextval(pg_get_serial_sequence('customers', 'write_seq'))
			  WHERE id = $1`

		comm, err := r.trx.Executor(ctx).Exec(ctx, q, c.InternalID, c.ExternalID, c.MasterExternalID, c.CompanyNumber,
			c.Name, street, city, postalCode, c.PreferredStore, c.BonusPoints, string(c.CustomerType))
		if err != nil {
			return err
		}

		if comm.RowsAffected() == 0 {
			return apperrors.NewEntryNotFoundErr(fmt.Sprintf("customer with internal id %s doesn't exist", *c.InternalID))
		}

		return r.replaceShoppingLists(ctx, *c.InternalID, c.ShoppingLists)
	})
	if err != nil {
		return model.Customer{}, err
	}

	return c, nil
}

func (r *postgresCustomerRepository) UpdateShoppingList(ctx context.Context, l model.ShoppingList) error {
	products, err := textArray(l.Products)
	if err != nil {
		return err
	}

	q := `INSERT INTO shopping_lists(products_key, products) VALUES($1, $2) ON CONFLICT (products_key) DO NOTHING`
	if _, err := r.trx.Executor(ctx).Exec(ctx, q, l.Key(), products); err != nil {
		return err
	}
	return nil
}

func (r *postgresCustomerRepository) findShoppingLists(ctx context.Context, customerID string) ([]model.ShoppingList, error) {
	lists := make([]model.ShoppingList, 0)
	q := "SELECT products FROM customer_shopping_lists WHERE customer_id = $1 ORDER BY position"

	rows, err := r.trx.Executor(ctx).Query(ctx, q, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var arr pgtype.TextArray
		if err := rows.Scan(&arr); err != nil {
			return nil, err
		}

		var products []string
		if err := arr.AssignTo(&products); err != nil {
			return nil, err
		}
		lists = append(lists, model.NewShoppingList(products...))
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *postgresCustomerRepository) replaceShoppingLists(ctx context.Context, customerID string, lists []model.ShoppingList) error {
	exec := r.trx.Executor(ctx)
	if _, err := exec.Exec(ctx, "DELETE FROM customer_shopping_lists WHERE customer_id = $1", customerID); err != nil {
		return err
	}

	if len(lists) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, l := range lists {
		products, err := textArray(l.Products)
		if err != nil {
			return err
		}
		batch.Queue("INSERT INTO customer_shopping_lists(customer_id, position, products) VALUES($1, $2, $3)", customerID, i, products)
	}

	results := exec.SendBatch(ctx, batch)
	for range lists {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

func (r *postgresCustomerRepository) scanRow(row pgx.Row) (model.Customer, error) {
	var c model.Customer
	var id, customerType string
	var street, city, postalCode *string

	err := row.Scan(&id, &c.ExternalID, &c.MasterExternalID, &c.CompanyNumber, &c.Name, &street, &city, &postalCode,
		&c.PreferredStore, &c.BonusPoints, &customerType)
	if err != nil {
		return model.Customer{}, err
	}

	c.InternalID = &id
	c.CustomerType = model.CustomerType(customerType)
	if street != nil || city != nil || postalCode != nil {
		c.Address = &model.Address{
			Street:     model.Value(street),
			City:       model.Value(city),
			PostalCode: model.Value(postalCode),
		}
	}
	return c, nil
}

func addressColumns(addr *model.Address) (street, city, postalCode *string) {
	if addr == nil {
		return nil, nil, nil
	}
	return &addr.Street, &addr.City, &addr.PostalCode
}

func textArray(products []string) (*pgtype.TextArray, error) {
	if products == nil {
		products = []string{}
	}

	arr := &pgtype.TextArray{}
	if err := arr.Set(products); err != nil {
		return nil, err
	}
	return arr, nil
}
