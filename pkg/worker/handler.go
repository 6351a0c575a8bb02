package worker

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"argos/pkg/api"
	"argos/pkg/provider"
	"argos/pkg/util/context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// errorBody mirrors the error payload of OpenAI compatible APIs
type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func handleCompletion(c provider.Client) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := contextFromHeaders(context.FromContext(r.Context()), r.Header)
		ctx = context.WithProviderID(ctx, c.ID())

		req, err := decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		start := time.Now()
		text, err := c.Generate(ctx, req)
		if err != nil {
			ctx.Logger().Warnf("generation failed: %v", err)
			// Fatal failures are reported the way the openai client classifies them as fatal
			status := http.StatusServiceUnavailable
			if provider.IsFatal(err) {
				status = http.StatusForbidden
			}
			writeError(w, status, err.Error())
			return
		}
		ctx.Logger().Debugf("generated %d bytes in %s", len(text), time.Since(start))

		resp := provider.ChatResponse{Choices: []provider.ChatChoice{{
			Message:      provider.ChatMessage{Role: "assistant", Content: text},
			FinishReason: "stop",
		}}}
		w.Header().Set("content-type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			ctx.Logger().Error(err)
		}
	}
}

// decode returns the generation request of a chat completion body.
// System messages are joined, the last user message is the prompt.
func decode(r *http.Request) (provider.Request, error) {
	if ct := r.Header.Get("content-type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return provider.Request{}, errors.New("only 'content-type: application/json' is supported")
		}
	}
	defer r.Body.Close()

	var chat provider.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&chat); err != nil {
		return provider.Request{}, errors.Wrap(err, "cannot decode request body")
	}

	var system []string
	req := provider.Request{
		MaxTokens:   chat.MaxTokens,
		Temperature: chat.Temperature,
	}
	for _, m := range chat.Messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "user":
			req.Prompt = m.Content
		}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return provider.Request{}, errors.New("a user message is required")
	}
	req.System = strings.Join(system, "\n")
	return req, nil
}

func contextFromHeaders(ctx context.Context, headers http.Header) context.Context {
	c := ctx
	if pid := headers.Get(api.HeaderPipelineID); pid != "" {
		c = context.WithPipelineID(c, pid)
	}
	if sid := headers.Get(api.HeaderStepID); sid != "" {
		c = context.WithStepID(c, sid)
	}
	cid := headers.Get(api.HeaderCorrelationID)
	if cid == "" {
		cid = uuid.New().String()
	}
	return context.WithCorrelationID(c, cid)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var body errorBody
	body.Error.Message = msg
	body.Error.Type = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
