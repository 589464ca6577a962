package infra

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/auth"
	"github.com/umalmyha/customersync/internal/handlers"
	"github.com/umalmyha/customersync/internal/middleware"
	"github.com/umalmyha/customersync/internal/service"
	"github.com/umalmyha/customersync/internal/validation"
)

// RouterOptions carries everything http api depends on, nil JwtValidator disables authorization
type RouterOptions struct {
	SyncSvc      service.CustomerSyncService
	CustomerSvc  service.CustomerService
	Validator    *validation.EchoValidator
	JwtValidator *auth.JwtValidator
	Logger       logrus.FieldLogger
}

func Router(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = opts.Validator
	e.HTTPErrorHandler = handlers.ErrorHandler(opts.Logger)

	e.Use(middleware.Metrics())

	// Middleware
	var syncAuthMw, readAuthMw echo.MiddlewareFunc = noAuth, noAuth
	if opts.JwtValidator != nil {
		syncAuthMw = middleware.Authorize(opts.JwtValidator, auth.ScopeCustomersSync)
		readAuthMw = middleware.Authorize(opts.JwtValidator, auth.ScopeCustomersRead)
	}

	// Handlers
	syncHandler := handlers.NewSyncHTTPHandler(opts.SyncSvc)
	customerHandler := handlers.NewCustomerHTTPHandler(opts.CustomerSvc)

	// Service routes
	e.GET("/health", handlers.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes
	customersAPIV1 := e.Group("/api/v1/customers")
	customersAPIV1.POST("/sync", syncHandler.Sync, syncAuthMw)
	customersAPIV1.GET("/:externalId", customerHandler.Get, readAuthMw)

	return e
}

func noAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
