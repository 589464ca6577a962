package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
)

const customersYAML = `
- externalId: "12345"
  companyNumber: "470813-8895"
  name: Acme Inc.
  address:
    street: Main st. 1
    city: Springfield
    postalCode: 12-345
  shoppingLists:
    - products: [milk, bread]
- externalId: joe-1
  name: Joe Bloggs
  bonusPoints: 150
`

func TestDecodeExternalCustomers(t *testing.T) {
	t.Log("yaml list is decoded")
	{
		customers, err := decodeExternalCustomers([]byte(customersYAML))
		require.NoError(t, err, "failed to decode yaml")
		require.Len(t, customers, 2)
		require.Equal(t, model.CustomerTypeCompany, customers[0].CustomerType())
		require.Equal(t, "Springfield", customers[0].Address.City)
		require.Equal(t, []model.ShoppingList{model.NewShoppingList("milk", "bread")}, customers[0].ShoppingLists)
		require.Equal(t, model.CustomerTypePerson, customers[1].CustomerType())
		require.Equal(t, 150, *customers[1].BonusPoints)
	}

	t.Log("single json customer is decoded")
	{
		customers, err := decodeExternalCustomers([]byte(`{"externalId":"12345","name":"Joe Bloggs","preferredStore":"store-1"}`))
		require.NoError(t, err, "failed to decode json")
		require.Len(t, customers, 1)
		require.Equal(t, "store-1", *customers[0].PreferredStore)
		require.Nil(t, customers[0].CompanyNumber)
	}

	t.Log("empty document is rejected")
	{
		_, err := decodeExternalCustomers([]byte("  \n"))
		require.Error(t, err)
	}
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	path := filepath.Join(t.TempDir(), "customers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customersYAML), 0o600))

	customers, err := readExternalCustomers(path)
	require.NoError(t, err, "failed to read customers file")

	customerDB := repository.NewInMemoryCustomerRepository(model.Customer{
		InternalID:   model.Ptr("45435"),
		ExternalID:   model.Ptr("joe-1"),
		CustomerType: model.CustomerTypeCompany,
	})
	syncSvc := service.NewCustomerSyncService(customerDB, cache.NewNopCustomerCache(), logger)

	t.Log("every customer is synced, conflicts are reported")
	{
		var out bytes.Buffer
		err := syncAll(ctx, syncSvc, customers, &out)
		require.Error(t, err, "conflicting customer must fail the run")
		require.Contains(t, err.Error(), "1 of 2")
		require.Contains(t, out.String(), "CREATE")
		require.Contains(t, out.String(), "FAILED")

		c, err := customerDB.FindByExternalID(ctx, "12345")
		require.NoError(t, err)
		require.NotNil(t, c, "company must be synced despite conflict of other customer")
	}
}
