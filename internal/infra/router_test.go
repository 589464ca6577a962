package infra

import (
	"crypto/ed25519"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/umalmyha/customersync/internal/auth"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/internal/validation"
)

func TestRouterAuthorization(t *testing.T) {
	logger, _ := test.NewNullLogger()

	v, err := validation.English()
	require.NoError(t, err, "failed to build validator")

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err, "failed to generate key pair")

	method := jwt.GetSigningMethod("EdDSA")
	issuer := auth.NewJwtIssuer("test-issuer", method, time.Minute, priv)

	customerDB := repository.NewInMemoryCustomerRepository()
	app := Router(RouterOptions{
		SyncSvc:      service.NewCustomerSyncService(customerDB, cache.NewNopCustomerCache(), logger),
		CustomerSvc:  service.NewCustomerService(customerDB, cache.NewNopCustomerCache(), logger),
		Validator:    v,
		JwtValidator: auth.NewJwtValidator(method, pub),
		Logger:       logger,
	})

	sync := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/customers/sync", strings.NewReader(`{"externalId":"12345","name":"Joe Bloggs"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}

		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec.Code
	}

	t.Log("request without token is unauthorized")
	{
		require.Equal(t, http.StatusUnauthorized, sync(""))
	}

	t.Log("token without sync scope is unauthorized")
	{
		token, err := issuer.Sign("reader", time.Now(), auth.ScopeCustomersRead)
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, sync(token))
	}

	t.Log("token with sync scope is accepted")
	{
		token, err := issuer.Sign("feed", time.Now(), auth.ScopeCustomersSync)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, sync(token))
	}

	t.Log("service routes are public")
	{
		for _, path := range []string{"/health", "/metrics"} {
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code, path)
		}

		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Contains(t, rec.Body.String(), "customersync_syncs_total")
	}
}
