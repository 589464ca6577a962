package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/validation"
)

// ErrorHandler converts error retrieved from handler to http response with corresponding status code
func ErrorHandler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorResponse(err)

		log := logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
			"status": status,
		})
		if status >= http.StatusInternalServerError {
			log.Error("error occurred on http request processing")
		} else {
			log.Debug("request rejected")
		}

		var respErr error
		if c.Request().Method == http.MethodHead {
			respErr = c.NoContent(status)
		} else {
			respErr = c.JSON(status, body)
		}

		if respErr != nil {
			logger.WithError(respErr).Error("failed to send error response")
		}
	}
}

func errorResponse(err error) (int, any) {
	var conflictErr *apperrors.ConflictErr
	if errors.As(err, &conflictErr) {
		return http.StatusConflict, conflictErr
	}

	var pldErr *validation.PayloadError
	if errors.As(err, &pldErr) {
		return http.StatusBadRequest, pldErr
	}

	var businessErr *apperrors.BusinessErr
	if errors.As(err, &businessErr) {
		return http.StatusBadRequest, businessErr
	}

	var notFoundErr *apperrors.EntryNotFoundErr
	if errors.As(err, &notFoundErr) {
		return http.StatusNotFound, echo.NewHTTPError(http.StatusNotFound, notFoundErr.Error())
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code, echoErr
	}

	return http.StatusInternalServerError, echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
