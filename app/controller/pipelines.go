package main

import (
	"net/http"

	"argos/pkg/client"
	"argos/pkg/util/context"

	"github.com/labstack/echo/v4"
)

func (h handlers) Start(c echo.Context) error {
	ctx := requestContext(c)
	var req client.StartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	v, err := h.sc.Start(ctx, req.Query, req.Constraints)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h handlers) List(c echo.Context) error {
	pipelines, err := h.sc.List(requestContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, client.ListResponse{
		Pipelines: pipelines,
	})
}

func (h handlers) Get(c echo.Context) error {
	v, err := h.sc.Get(requestContext(c), c.Param(client.PipelineIDParam))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Next(c echo.Context) error {
	// The generation outlives the request, a client disconnection must not abandon it
	ctx := context.WithCorrelationID(context.Background(), requestContext(c).CorrelationID())
	v, err := h.sc.ExecuteNextStep(ctx, c.Param(client.PipelineIDParam))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Cancel(c echo.Context) error {
	var req client.CancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		req.Reason = "cancelled by user"
	}
	v, err := h.sc.Cancel(requestContext(c), c.Param(client.PipelineIDParam), req.Reason)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Export(c echo.Context) error {
	md, err := h.sc.Export(requestContext(c), c.Param(client.PipelineIDParam))
	if err != nil {
		return httpError(err)
	}
	return c.Blob(http.StatusOK, "text/markdown; charset=UTF-8", []byte(md))
}
