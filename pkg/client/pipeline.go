package client

import (
	"context"
	"fmt"
	"net/http"

	"argos/pkg/api"
)

// StartRequest is the request structure for the Start endpoint
type StartRequest struct {
	Query       string                 `json:"query"`
	Constraints map[string]interface{} `json:"constraints,omitempty"`
}

// ListResponse is the response structure for the List endpoint
type ListResponse struct {
	Pipelines []api.PipelineInfo `json:"pipelines"`
}

// CancelRequest is the request structure for the Cancel endpoint
type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

const (
	// StartMethod is http method used for endpoint Start
	StartMethod = http.MethodPost
	// StartPath is the path definition of the endpoint Start
	StartPath = "/pipelines"

	// ListMethod is http method used for endpoint List
	ListMethod = http.MethodGet
	// ListPath is the path definition of the endpoint List
	ListPath = "/pipelines"

	// GetMethod is http method used for endpoint Get
	GetMethod     = http.MethodGet
	getPathFormat = "/pipelines/%s"

	// NextMethod is http method used for endpoint Next
	NextMethod     = http.MethodPost
	nextPathFormat = "/pipelines/%s/next"

	// CancelMethod is http method used for endpoint Cancel
	CancelMethod     = http.MethodPost
	cancelPathFormat = "/pipelines/%s/cancel"

	// ExportMethod is http method used for endpoint Export
	ExportMethod     = http.MethodGet
	exportPathFormat = "/pipelines/%s/export"
)

var (
	pidParam = fmt.Sprintf(":%s", PipelineIDParam)

	// GetPath is the path definition of the endpoint Get
	GetPath = fmt.Sprintf(getPathFormat, pidParam)
	// NextPath is the path definition of the endpoint Next
	NextPath = fmt.Sprintf(nextPathFormat, pidParam)
	// CancelPath is the path definition of the endpoint Cancel
	CancelPath = fmt.Sprintf(cancelPathFormat, pidParam)
	// ExportPath is the path definition of the endpoint Export
	ExportPath = fmt.Sprintf(exportPathFormat, pidParam)
)

func (cli client) Start(ctx context.Context, query string, constraints map[string]interface{}) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, StartMethod, StartPath, StartRequest{Query: query, Constraints: constraints}, &res)
	return res, err
}

func (cli client) Get(ctx context.Context, pid string) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, GetMethod, fmt.Sprintf(getPathFormat, pid), nil, &res)
	return res, err
}

func (cli client) List(ctx context.Context) ([]api.PipelineInfo, error) {
	var res ListResponse
	if err := cli.do(ctx, ListMethod, ListPath, nil, &res); err != nil {
		return nil, err
	}
	return res.Pipelines, nil
}

func (cli client) Next(ctx context.Context, pid string) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, NextMethod, fmt.Sprintf(nextPathFormat, pid), nil, &res)
	return res, err
}

func (cli client) Cancel(ctx context.Context, pid, reason string) (api.PipelineView, error) {
	var res api.PipelineView
	err := cli.do(ctx, CancelMethod, fmt.Sprintf(cancelPathFormat, pid), CancelRequest{Reason: reason}, &res)
	return res, err
}

func (cli client) Export(ctx context.Context, pid string) (string, error) {
	var res string
	err := cli.do(ctx, ExportMethod, fmt.Sprintf(exportPathFormat, pid), nil, &res)
	return res, err
}
