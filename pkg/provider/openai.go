package provider

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"argos/pkg/api"
	"argos/pkg/util/context"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	// OpenAIKind Provider kind for OpenAI compatible chat completion APIs
	OpenAIKind Kind = "openai"

	// ChatCompletionsPath is the path of the chat completion endpoint, relative to the provider url
	ChatCompletionsPath = "/chat/completions"
)

func init() {
	register(OpenAIKind, NewOpenAIClient)
}

// ChatMessage is a message of a chat completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a chat completion request
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is the body of a chat completion response
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
}

// ChatChoice is one choice of a chat completion response
type ChatChoice struct {
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason,omitempty"`
}

// NewChatRequest returns the chat completion request for the given generation request
func NewChatRequest(model string, req Request) ChatRequest {
	var msgs []ChatMessage
	if req.System != "" {
		msgs = append(msgs, ChatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, ChatMessage{Role: "user", Content: req.Prompt})
	return ChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
}

type openai struct {
	id      string
	url     string
	model   string
	apiKey  string
	httpcli *retryablehttp.Client
	limiter *rate.Limiter
}

// NewOpenAIClient returns a Client calling an OpenAI compatible chat completion API
func NewOpenAIClient(c Config) (Client, error) {
	u := strings.TrimRight(strings.TrimSpace(c.URL), "/")
	if u == "" {
		return nil, errors.Errorf("url is required for provider %s", c.ID)
	}
	if !strings.Contains(u, "://") {
		u = "http://" + u
	}

	httpcli := retryablehttp.NewClient()
	httpcli.Logger = nil
	httpcli.RetryMax = c.Retries
	httpcli.RetryWaitMin = 100 * time.Millisecond
	httpcli.RetryWaitMax = time.Second
	httpcli.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if c.Timeout > 0 {
		httpcli.HTTPClient.Timeout = c.Timeout
	}

	var limiter *rate.Limiter
	if c.RateLimit > 0 {
		burst := c.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(c.RateLimit), burst)
	}

	return &openai{
		id:      c.ID,
		url:     u,
		model:   c.Model,
		apiKey:  c.apiKey(),
		httpcli: httpcli,
		limiter: limiter,
	}, nil
}

func (c *openai) ID() string {
	return c.id
}

func (c *openai) Generate(ctx context.Context, req Request) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", Transient(errors.Wrap(err, "rate limited"))
		}
	}

	payload, err := json.Marshal(NewChatRequest(c.model, req))
	if err != nil {
		return "", Fatal(errors.Wrap(err, "cannot marshal chat request"))
	}
	r, err := retryablehttp.NewRequest(http.MethodPost, c.url+ChatCompletionsPath, payload)
	if err != nil {
		return "", Fatal(errors.Wrap(err, "cannot create request"))
	}
	r = r.WithContext(ctx)
	r.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if cid := ctx.CorrelationID(); cid != "" {
		r.Header.Set(api.HeaderCorrelationID, cid)
	}
	if pid := ctx.PipelineID(); pid != "" {
		r.Header.Set(api.HeaderPipelineID, pid)
	}
	if sid := ctx.StepID(); sid != "" {
		r.Header.Set(api.HeaderStepID, sid)
	}

	resp, err := c.httpcli.Do(r)
	if err != nil {
		return "", Transient(errors.Wrap(err, "request failed"))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", Fatal(errors.Errorf("status %s", resp.Status))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", Transient(errors.Errorf("status %s", resp.Status))
	}

	var decoded ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", Transient(errors.Wrap(err, "cannot decode response"))
	}
	if len(decoded.Choices) == 0 {
		return "", Transient(errors.New("response missing choices"))
	}
	content := decoded.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", Transient(errors.New("response empty"))
	}
	return content, nil
}
