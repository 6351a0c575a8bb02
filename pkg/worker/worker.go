// Package worker exposes a provider Client as an OpenAI compatible chat completion endpoint.
// It is used to run standalone generation backends, such as the mock provider, reachable by the openai provider kind.
package worker

import (
	"fmt"
	"net/http"
	"time"

	"argos/pkg/provider"
	"argos/pkg/util/context"

	"github.com/caarlos0/env/v6"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Config is the worker server configuration
type Config struct {
	Port         int           `env:"PORT" envDefault:"8090"`
	APIKey       string        `env:"API_KEY"` // when set, requests must carry it as bearer token
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5m"`
}

// ConfigFromEnv returns the worker configuration read from the environment
func ConfigFromEnv() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Wrap(err, "cannot parse worker configuration")
	}
	return c, nil
}

// Start serves the client and exits the process on failure
func Start(c provider.Client) {
	ctx := context.Background()
	conf, err := ConfigFromEnv()
	if err != nil {
		ctx.Logger().Fatal(err)
	}
	if err := Serve(ctx, conf, c); err != nil {
		ctx.Logger().Fatal(err)
	}
}

// Serve starts an http server for the given client, blocking until it stops
func Serve(ctx context.Context, conf Config, c provider.Client) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", conf.Port),
		Handler:      NewHandler(c, conf.APIKey),
		ReadTimeout:  conf.ReadTimeout,
		WriteTimeout: conf.WriteTimeout,
	}
	ctx.Logger().Infof("provider %s served on :%d", c.ID(), conf.Port)
	return srv.ListenAndServe()
}

// NewHandler returns the routes serving the client.
// Routes are POST /chat/completions (also under /v1) and GET /healthz.
func NewHandler(c provider.Client, apiKey string) http.Handler {
	r := mux.NewRouter()
	h := handleCompletion(c)
	r.HandleFunc(provider.ChatCompletionsPath, h).Methods(http.MethodPost)
	r.HandleFunc("/v1"+provider.ChatCompletionsPath, h).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	if apiKey != "" {
		r.Use(bearer(apiKey))
	}
	return r
}

func bearer(apiKey string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/healthz" && r.Header.Get("Authorization") != "Bearer "+apiKey {
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
