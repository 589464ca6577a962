package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/internal/validation"
)

const (
	syncURL      = "/api/v1/customers/sync"
	customersURL = "/api/v1/customers/"
)

type handlersTestSuite struct {
	suite.Suite
	app        *echo.Echo
	customerDB *repository.InMemoryCustomerRepository
}

func (s *handlersTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()

	v, err := validation.English()
	s.Require().NoError(err, "failed to build echo validator")

	s.customerDB = repository.NewInMemoryCustomerRepository()
	customerCache := cache.NewNopCustomerCache()
	syncSvc := service.NewCustomerSyncService(s.customerDB, customerCache, logger)
	customerSvc := service.NewCustomerService(s.customerDB, customerCache, logger)

	s.app = echo.New()
	s.app.Validator = v
	s.app.HTTPErrorHandler = ErrorHandler(logger)

	syncHandler := NewSyncHTTPHandler(syncSvc)
	customerHandler := NewCustomerHTTPHandler(customerSvc)

	s.app.GET("/health", Health)
	s.app.POST(syncURL, syncHandler.Sync)
	s.app.GET(customersURL+":externalId", customerHandler.Get)
}

func (s *handlersTestSuite) request(method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	s.app.ServeHTTP(rec, req)
	return rec
}

func (s *handlersTestSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), "failed to decode response body")
}

func (s *handlersTestSuite) TestSyncCreateThenUpdate() {
	body := `{"externalId":"12345","companyNumber":"470813-8895","name":"Acme Inc.","shoppingLists":[{"products":["milk","bread"]}]}`

	s.T().Log("first sync creates customer")
	{
		rec := s.request(http.MethodPost, syncURL, body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var res map[string]string
		s.decode(rec, &res)
		s.Assert().Equal("CREATE", res["action"])
	}

	s.T().Log("second sync updates customer")
	{
		rec := s.request(http.MethodPost, syncURL, body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var res map[string]string
		s.decode(rec, &res)
		s.Assert().Equal("UPDATE", res["action"])
	}

	s.T().Log("synced customer is readable by external id")
	{
		rec := s.request(http.MethodGet, customersURL+"12345", "")
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

		var c model.Customer
		s.decode(rec, &c)
		s.Assert().Equal(model.CustomerTypeCompany, c.CustomerType)
		s.Assert().Equal("Acme Inc.", *c.Name)
		s.Assert().Len(c.ShoppingLists, 2)
		s.Assert().NotNil(c.InternalID)
	}
}

func (s *handlersTestSuite) TestSyncInvalidPayload() {
	s.T().Log("payload without external id and name is rejected")
	{
		rec := s.request(http.MethodPost, syncURL, `{"bonusPoints":-5}`)
		s.Require().Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

		var res struct {
			Errors []struct {
				Field string `json:"field"`
			} `json:"errors"`
		}
		s.decode(rec, &res)

		fields := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			fields = append(fields, e.Field)
		}
		s.Assert().ElementsMatch([]string{"externalId", "name", "bonusPoints"}, fields)
	}

	s.T().Log("malformed json is rejected")
	{
		rec := s.request(http.MethodPost, syncURL, `{"externalId":`)
		s.Assert().Equal(http.StatusBadRequest, rec.Code)
	}
}

func (s *handlersTestSuite) TestSyncConflict() {
	s.customerDB.Add(model.Customer{
		InternalID:   model.Ptr("45435"),
		ExternalID:   model.Ptr("12345"),
		CustomerType: model.CustomerTypePerson,
	})

	s.T().Log("company conflicting with stored person is reported with 409")
	{
		rec := s.request(http.MethodPost, syncURL, `{"externalId":"12345","companyNumber":"470813-8895","name":"Acme Inc."}`)
		s.Require().Equal(http.StatusConflict, rec.Code, rec.Body.String())

		var res map[string]string
		s.decode(rec, &res)
		s.Assert().Equal("12345", res["externalId"])
		s.Assert().Equal("Existing customer for externalCustomer 12345 already exists and is not a company", res["message"])
	}
}

func (s *handlersTestSuite) TestGetMissingCustomer() {
	s.T().Log("missing customer is reported with 404")
	{
		rec := s.request(http.MethodGet, customersURL+"unknown", "")
		s.Assert().Equal(http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func (s *handlersTestSuite) TestHealth() {
	rec := s.request(http.MethodGet, "/health", "")
	s.Assert().Equal(http.StatusOK, rec.Code)
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(handlersTestSuite))
}

func TestErrorResponseForUnknownError(t *testing.T) {
	status, body := errorResponse(context.DeadlineExceeded)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, status)
	}

	httpErr, ok := body.(*echo.HTTPError)
	if !ok || httpErr.Message != "Internal server error" {
		t.Fatalf("internal error details must not leak, got %v", body)
	}
}
