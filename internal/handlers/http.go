package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/service"
)

type address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

type shoppingList struct {
	Products []string `json:"products" validate:"required,dive,required"`
}

type externalCustomer struct {
	ExternalID     string         `json:"externalId" validate:"required,max=64"`
	CompanyNumber  *string        `json:"companyNumber" validate:"omitempty,min=1,max=64"`
	Name           string         `json:"name" validate:"required"`
	Address        *address       `json:"address"`
	PreferredStore *string        `json:"preferredStore" validate:"omitempty,min=1"`
	BonusPoints    *int           `json:"bonusPoints" validate:"omitempty,gte=0"`
	ShoppingLists  []shoppingList `json:"shoppingLists" validate:"dive"`
}

func (e externalCustomer) model() model.ExternalCustomer {
	ext := model.ExternalCustomer{
		ExternalID:     e.ExternalID,
		CompanyNumber:  e.CompanyNumber,
		Name:           e.Name,
		PreferredStore: e.PreferredStore,
		BonusPoints:    e.BonusPoints,
		ShoppingLists:  make([]model.ShoppingList, 0, len(e.ShoppingLists)),
	}

	if e.Address != nil {
		ext.Address = &model.Address{Street: e.Address.Street, City: e.Address.City, PostalCode: e.Address.PostalCode}
	}

	for _, l := range e.ShoppingLists {
		ext.ShoppingLists = append(ext.ShoppingLists, model.NewShoppingList(l.Products...))
	}
	return ext
}

type syncResult struct {
	Action model.Action `json:"action"`
}

type externalIdentifier struct {
	ExternalID string `json:"externalId" validate:"required,max=64"`
}

// SyncHTTPHandler is http handler for sync endpoint
type SyncHTTPHandler struct {
	syncSvc service.CustomerSyncService
}

// NewSyncHTTPHandler builds new SyncHTTPHandler
func NewSyncHTTPHandler(syncSvc service.CustomerSyncService) *SyncHTTPHandler {
	return &SyncHTTPHandler{syncSvc: syncSvc}
}

// Sync syncs external customer
// @Summary     Sync external customer
// @Description Resolves stored customer matching external one, merges it and persists the result
// @Tags        customers
// @Security	ApiKeyAuth
// @Accept		json
// @Produce     json
// @Param 		externalCustomer body	  externalCustomer true "External customer"
// @Success     200    		     {object} syncResult
// @Failure     400    		     {object} echo.HTTPError
// @Failure     409    		     {object} errors.ConflictErr
// @Failure     500    		     {object} echo.HTTPError
// @Router      /api/v1/customers/sync [post]
func (h *SyncHTTPHandler) Sync(c echo.Context) error {
	var ec externalCustomer
	if err := c.Bind(&ec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&ec); err != nil {
		return err
	}

	action, err := h.syncSvc.Sync(c.Request().Context(), ec.model())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &syncResult{Action: action})
}

// CustomerHTTPHandler is http handler for customer endpoint
type CustomerHTTPHandler struct {
	customerSvc service.CustomerService
}

// NewCustomerHTTPHandler builds new CustomerHTTPHandler
func NewCustomerHTTPHandler(customerSvc service.CustomerService) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customerSvc: customerSvc}
}

// Get gets customer
// @Summary     Get single customer by external id
// @Description Returns customer synced from external customer with provided id
// @Tags        customers
// @Security	ApiKeyAuth
// @Produce     json
// @Param       externalId path     string true "External customer id"
// @Success     200        {object} model.Customer
// @Failure     400        {object} echo.HTTPError
// @Failure     404        {object} echo.HTTPError
// @Failure     500        {object} echo.HTTPError
// @Router      /api/v1/customers/{externalId} [get]
func (h *CustomerHTTPHandler) Get(c echo.Context) error {
	id := c.Param("externalId")
	if err := c.Validate(&externalIdentifier{ExternalID: id}); err != nil {
		return err
	}

	customer, err := h.customerSvc.FindByExternalID(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &customer)
}

// Health reports service is up
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
