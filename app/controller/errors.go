package main

import (
	"net/http"

	"argos/pkg/scheduler"
	"argos/pkg/store"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// httpError maps engine errors to HTTP errors
func httpError(err error) error {
	switch {
	case errors.As(err, &store.ErrNotFound{}):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &scheduler.ErrInvalidState{}), errors.As(err, &scheduler.ErrOutOfOrder{}):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &scheduler.ErrOutOfRange{}), errors.As(err, &scheduler.ErrNoArtifact{}):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
