package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/middleware"
	"github.com/anonto42/vidspace/backend/internal/services"
	"github.com/anonto42/vidspace/backend/pkg/logging"
)

// httpError translates a core error into an echo HTTP error.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		if fields := services.FieldErrors(err); len(fields) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"message": "Validation failed", "fields": fields})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateHandle):
		return echo.NewHTTPError(http.StatusConflict, "Handle already taken")
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrStorageUnavailable):
		logging.Error().Err(err).Msg("storage unavailable")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Storage unavailable, try again")
	default:
		logging.Error().Err(err).Msg("unhandled error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal error")
	}
}

// bindAndValidate binds the request body and runs the struct's validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return httpError(errors.Join(services.ErrValidation, err))
	}
	return nil
}

func success(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func currentHandle(c echo.Context) string {
	return middleware.CurrentHandle(c)
}
