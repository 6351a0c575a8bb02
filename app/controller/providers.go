package main

import (
	"net/http"

	"argos/pkg/client"
	"argos/pkg/health"

	"github.com/labstack/echo/v4"
)

func (h handlers) ResetProviders(c echo.Context) error {
	ctx := requestContext(c)
	h.tracker.Reset()
	ctx.Logger().Info("provider health reset")
	return h.Providers(c)
}

func (h handlers) Providers(c echo.Context) error {
	ids := h.router.Providers()
	records := make([]health.Record, len(ids))
	for i, id := range ids {
		records[i], _ = h.tracker.Get(id)
	}
	return c.JSON(http.StatusOK, client.ProvidersResponse{
		Strategy:  string(h.router.Strategy()),
		Providers: records,
	})
}
