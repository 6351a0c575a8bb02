package client

import (
	"context"
	"net/http"

	"argos/pkg/health"
)

// ProvidersResponse is the response structure for the Providers endpoint
type ProvidersResponse struct {
	Strategy  string          `json:"strategy"`
	Providers []health.Record `json:"providers"`
}

const (
	// ProvidersMethod is http method used for endpoint Providers
	ProvidersMethod = http.MethodGet
	// ProvidersPath is the path definition of the endpoint Providers
	ProvidersPath = "/providers"

	// ResetProvidersMethod is http method used for endpoint ResetProviders
	ResetProvidersMethod = http.MethodPost
	// ResetProvidersPath is the path definition of the endpoint ResetProviders
	ResetProvidersPath = "/providers/reset"
)

func (cli client) Providers(ctx context.Context) (ProvidersResponse, error) {
	var res ProvidersResponse
	err := cli.do(ctx, ProvidersMethod, ProvidersPath, nil, &res)
	return res, err
}

func (cli client) ResetProviders(ctx context.Context) (ProvidersResponse, error) {
	var res ProvidersResponse
	err := cli.do(ctx, ResetProvidersMethod, ResetProvidersPath, nil, &res)
	return res, err
}
