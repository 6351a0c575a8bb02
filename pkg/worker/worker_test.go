package worker

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"argos/pkg/provider"
	"argos/pkg/util/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRemote(t *testing.T, srv *httptest.Server, apiKey string) provider.Client {
	cli, err := provider.New(provider.Config{ID: "remote", Kind: provider.OpenAIKind, URL: srv.URL + "/v1", APIKey: apiKey})
	require.NoError(t, err)
	return cli
}

func TestServeThroughOpenAIClient(t *testing.T) {
	mock := provider.NewMock("backend", provider.MockOptions{Response: "Demand is there.\nSCORE: 7/10"})
	srv := httptest.NewServer(NewHandler(mock, ""))
	defer srv.Close()

	ctx := context.WithStepID(context.WithPipelineID(context.Background(), "pid"), "risks")
	text, err := newRemote(t, srv, "").Generate(ctx, provider.Request{System: "be brief", Prompt: "expand to EU?", MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, "Demand is there.\nSCORE: 7/10", text)

	require.Len(t, mock.Requests(), 1)
	req := mock.Requests()[0]
	assert.Equal(t, "be brief", req.System)
	assert.Equal(t, "expand to EU?", req.Prompt)
	assert.Equal(t, 64, req.MaxTokens)
}

func TestFailuresKeepTheirClass(t *testing.T) {
	transient := httptest.NewServer(NewHandler(provider.NewMock("t", provider.MockOptions{Fail: "overloaded"}), ""))
	defer transient.Close()
	_, err := newRemote(t, transient, "").Generate(context.Background(), provider.Request{Prompt: "q"})
	require.Error(t, err)
	assert.False(t, provider.IsFatal(err))

	fatal := httptest.NewServer(NewHandler(provider.NewMock("f", provider.MockOptions{Fail: "quota exceeded", Fatal: true}), ""))
	defer fatal.Close()
	_, err = newRemote(t, fatal, "").Generate(context.Background(), provider.Request{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, provider.IsFatal(err))
}

func TestAPIKey(t *testing.T) {
	srv := httptest.NewServer(NewHandler(provider.NewMock("m", provider.MockOptions{}), "secret"))
	defer srv.Close()

	_, err := newRemote(t, srv, "wrong").Generate(context.Background(), provider.Request{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, provider.IsFatal(err))

	text, err := newRemote(t, srv, "secret").Generate(context.Background(), provider.Request{Prompt: "q"})
	require.NoError(t, err)
	assert.Contains(t, text, "SCORE:")

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBadRequest(t *testing.T) {
	srv := httptest.NewServer(NewHandler(provider.NewMock("m", provider.MockOptions{}), ""))
	defer srv.Close()

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"not json", "text/plain", `{}`},
		{"malformed", "application/json", `{"messages":`},
		{"no user message", "application/json; charset=utf-8", `{"messages":[{"role":"system","content":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+provider.ChatCompletionsPath, tt.contentType, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8090, c.Port)

	os.Setenv("PORT", "abc")
	defer os.Unsetenv("PORT")
	_, err = ConfigFromEnv()
	require.Error(t, err)
}
