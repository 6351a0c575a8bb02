package main

import (
	"net/http"
	"strconv"

	"argos/pkg/client"

	"github.com/labstack/echo/v4"
)

func (h handlers) Approve(c echo.Context) error {
	var req client.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.sc.ApproveStep(requestContext(c), c.Param(client.PipelineIDParam), c.Param(client.StepIDParam), req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Reject(c echo.Context) error {
	var req client.DecisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.sc.RejectStep(requestContext(c), c.Param(client.PipelineIDParam), c.Param(client.StepIDParam), req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Edit(c echo.Context) error {
	line, err := intParam(c, client.LineParam)
	if err != nil {
		return err
	}
	var req client.EditRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.sc.EditArtifact(requestContext(c), c.Param(client.PipelineIDParam), c.Param(client.StepIDParam), line, req.Content)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h handlers) Comment(c echo.Context) error {
	var req client.CommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	comment, v, err := h.sc.AddComment(requestContext(c), c.Param(client.PipelineIDParam), c.Param(client.StepIDParam), req.LineIndex, req.Text, req.Author)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, client.CommentResponse{
		Comment:  comment,
		Pipeline: v,
	})
}

func (h handlers) Resolve(c echo.Context) error {
	index, err := intParam(c, client.CommentParam)
	if err != nil {
		return err
	}
	v, err := h.sc.ResolveComment(requestContext(c), c.Param(client.PipelineIDParam), c.Param(client.StepIDParam), index)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func intParam(c echo.Context, name string) (int, error) {
	i, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return i, nil
}
