package client

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"

	"argos/pkg/api"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	// PipelineIDParam is the param definition for PipelineID
	PipelineIDParam = "pid"

	// StepIDParam is the param definition for StepID
	StepIDParam = "sid"

	// LineParam is the param definition for an artifact line index
	LineParam = "line"

	// CommentParam is the param definition for a comment index
	CommentParam = "cid"

	// DefaultRetryMax is the number of retries of a request failing with a connection error or a 5xx
	DefaultRetryMax = 2
)

// Client is the API client that performs all operations to an argos server
type Client interface {
	// Start starts a new pipeline for the query. Nothing is generated.
	Start(ctx context.Context, query string, constraints map[string]interface{}) (api.PipelineView, error)

	// Get returns the pipeline.
	Get(ctx context.Context, pid string) (api.PipelineView, error)

	// List returns the pipelines, most recent first.
	List(ctx context.Context) ([]api.PipelineInfo, error)

	// Next generates the next pending step of the pipeline.
	Next(ctx context.Context, pid string) (api.PipelineView, error)

	// Cancel cancels the pipeline.
	Cancel(ctx context.Context, pid, reason string) (api.PipelineView, error)

	// Approve approves a completed step.
	Approve(ctx context.Context, pid, stepID, notes string) (api.PipelineView, error)

	// Reject rejects a completed step, it will be generated again.
	Reject(ctx context.Context, pid, stepID, feedback string) (api.PipelineView, error)

	// Edit overwrites one line of the step artifact.
	Edit(ctx context.Context, pid, stepID string, line int, content string) (api.PipelineView, error)

	// Comment adds a comment on one line of the step artifact.
	Comment(ctx context.Context, pid, stepID string, line int, text, author string) (CommentResponse, error)

	// Resolve resolves a comment of the step artifact.
	Resolve(ctx context.Context, pid, stepID string, comment int) (api.PipelineView, error)

	// Export returns the pipeline rendered as markdown.
	Export(ctx context.Context, pid string) (string, error)

	// Providers returns the health of the providers.
	Providers(ctx context.Context) (ProvidersResponse, error)

	// ResetProviders forgets the health of the providers, every provider is available again.
	ResetProviders(ctx context.Context) (ProvidersResponse, error)
}

// NewClient creates an argos client
func NewClient(uri string) (Client, error) {
	if uri == "" {
		return nil, errors.New("server uri is required")
	}
	httpcli := retryablehttp.NewClient()
	httpcli.Logger = nil
	httpcli.RetryMax = DefaultRetryMax
	httpcli.ErrorHandler = retryablehttp.PassthroughErrorHandler
	u := strings.TrimRight(uri, "/")
	return client{
		httpcli: httpcli,
		uri:     u,
	}, nil
}

type client struct {
	httpcli *retryablehttp.Client
	uri     string
}

// do sends the request with in as json body and decodes the json response into out.
// When out is a *string, the raw body is returned.
func (cli client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body interface{}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "cannot marshal request")
		}
		body = b
	}

	req, err := retryablehttp.NewRequest(method, cli.uri+path, body)
	if err != nil {
		return errors.Wrap(err, "cannot create request")
	}
	if in != nil {
		req.Header.Set("content-type", "application/json")
	}
	if cid, ok := ctx.Value(correlationIDKey{}).(string); ok && cid != "" {
		req.Header.Set(api.HeaderCorrelationID, cid)
	}

	resp, err := cli.httpcli.Do(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "cannot do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errorFromResponse(resp)
	}
	if out == nil {
		return nil
	}
	if s, isString := out.(*string); isString {
		b, err := ioutil.ReadAll(resp.Body)
		if err != nil {
			return errors.Wrap(err, "cannot read response")
		}
		*s = string(b)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "cannot decode response")
	}
	return nil
}

type correlationIDKey struct{}

// WithCorrelationID returns a copy of ctx whose requests carry the given correlation ID
func WithCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}
