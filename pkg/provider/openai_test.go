package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"argos/pkg/util/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, h func(w http.ResponseWriter, r *http.Request, body ChatRequest)) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1"+ChatCompletionsPath, r.URL.Path)
		var body ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		h(w, r, body)
	}))
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Choices: []ChatChoice{{Message: ChatMessage{Role: "assistant", Content: content}}},
	})
}

func TestOpenAIGenerate(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "cid", r.Header.Get("X-Correlation-Id"))
		assert.Equal(t, "gpt", body.Model)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		assert.Equal(t, "be brief", body.Messages[0].Content)
		assert.Equal(t, "user", body.Messages[1].Role)
		reply(w, "echo: "+body.Messages[1].Content)
	})
	defer srv.Close()

	cli, err := New(Config{ID: "primary", Kind: "OpenAI", URL: srv.URL + "/v1/", Model: "gpt", APIKey: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "primary", cli.ID())

	ctx := context.WithCorrelationID(context.Background(), "cid")
	out, err := cli.Generate(ctx, Request{System: "be brief", Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", out)
}

func TestOpenAIErrors(t *testing.T) {
	t.Run("unauthorized_is_fatal", func(t *testing.T) {
		srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		defer srv.Close()
		cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = cli.Generate(context.Background(), Request{Prompt: "hello"})
		require.Error(t, err)
		assert.True(t, IsFatal(err))
	})

	t.Run("server_error_is_transient", func(t *testing.T) {
		srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
			w.WriteHeader(http.StatusBadGateway)
		})
		defer srv.Close()
		cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = cli.Generate(context.Background(), Request{Prompt: "hello"})
		require.Error(t, err)
		assert.False(t, IsFatal(err))
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("missing_choices", func(t *testing.T) {
		srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
			w.Write([]byte(`{"choices":[]}`))
		})
		defer srv.Close()
		cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = cli.Generate(context.Background(), Request{Prompt: "hello"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing choices")
	})

	t.Run("malformed", func(t *testing.T) {
		srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
			w.Write([]byte(`{"choices":`))
		})
		defer srv.Close()
		cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = cli.Generate(context.Background(), Request{Prompt: "hello"})
		require.Error(t, err)
		assert.False(t, IsFatal(err))
	})

	t.Run("deadline", func(t *testing.T) {
		srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
			select {
			case <-r.Context().Done():
			case <-time.After(500 * time.Millisecond):
			}
			reply(w, "too late")
		})
		defer srv.Close()
		cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1"})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		_, err = cli.Generate(ctx, Request{Prompt: "hello"})
		require.Error(t, err)
		assert.False(t, IsFatal(err))
		assert.True(t, time.Since(start) < 400*time.Millisecond)
	})

	t.Run("missing_url", func(t *testing.T) {
		_, err := NewOpenAIClient(Config{ID: "p"})
		require.Error(t, err)
	})
}

func TestOpenAIRetries(t *testing.T) {
	var calls int32
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		reply(w, "ok")
	})
	defer srv.Close()

	cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1", Retries: 1})
	require.NoError(t, err)
	out, err := cli.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIRateLimit(t *testing.T) {
	srv := chatServer(t, func(w http.ResponseWriter, r *http.Request, body ChatRequest) {
		reply(w, "ok")
	})
	defer srv.Close()

	// One request every 10s, the second one cannot be served before the deadline
	cli, err := NewOpenAIClient(Config{ID: "p", URL: srv.URL + "/v1", RateLimit: 0.1})
	require.NoError(t, err)
	_, err = cli.Generate(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = cli.Generate(ctx, Request{Prompt: "hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
