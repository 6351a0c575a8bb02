package provider

import (
	"os"
	"strings"
	"time"

	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

var (
	factories = make(map[Kind]func(Config) (Client, error))
)

func register(k Kind, f func(Config) (Client, error)) {
	factories[k] = f
}

// Kind is a string designing the implementation of Client interface
type Kind string

// Request is a generation request
type Request struct {
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Client wraps one generation backend.
type Client interface {
	// ID returns the provider identifier
	ID() string

	// Generate returns the text generated for the request.
	// It blocks until the response is received or the context is done.
	// Returned errors are flagged with Transient or Fatal.
	Generate(ctx context.Context, req Request) (string, error)
}

// Config is the configuration of a provider
type Config struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	URL       string                 `json:"url"`
	Model     string                 `json:"model"`
	APIKey    string                 `json:"api_key"`
	APIKeyEnv string                 `json:"api_key_env"` // env variable holding the api key, takes precedence over APIKey
	Cost      float64                `json:"cost"`        // relative cost per request, used by the cost-optimized strategy
	RateLimit float64                `json:"rate_limit"`  // requests per second, 0 for no limit
	Burst     int                    `json:"burst"`
	Retries   int                    `json:"retries"` // transport retries within one call
	Timeout   time.Duration          `json:"timeout"` // http client timeout, calls are bounded by the context anyway
	Options   map[string]interface{} `json:"options"` // kind specific options
}

func (c Config) apiKey() string {
	if c.APIKeyEnv != "" {
		if v := os.Getenv(c.APIKeyEnv); v != "" {
			return v
		}
	}
	return c.APIKey
}

// New returns a new Client based on the given configuration
func New(c Config) (Client, error) {
	if c.ID == "" {
		return nil, errors.New("provider id is required")
	}
	f, ok := factories[Kind(strings.ToLower(string(c.Kind)))]
	if !ok {
		return nil, errors.Errorf("unknown provider kind %s for provider %s", c.Kind, c.ID)
	}
	return f(c)
}

// NewFromConfig returns the clients configured in the config file with the given key, along with their costs.
func NewFromConfig(configKey string) ([]Client, map[string]float64, error) {
	var cfgs []Config
	if err := config.Decode(config.Get(configKey), &cfgs); err != nil {
		return nil, nil, errors.Wrapf(err, "cannot decode providers config with key %s", configKey)
	}
	return NewAll(cfgs)
}

// NewAll returns the clients for the given configurations, along with their costs.
func NewAll(cfgs []Config) ([]Client, map[string]float64, error) {
	clients := make([]Client, 0, len(cfgs))
	costs := make(map[string]float64)
	for _, c := range cfgs {
		if _, exists := costs[c.ID]; exists {
			return nil, nil, errors.Errorf("provider %s is configured twice", c.ID)
		}
		cli, err := New(c)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "cannot create provider %s", c.ID)
		}
		clients = append(clients, cli)
		costs[c.ID] = c.Cost
	}
	return clients, costs, nil
}
