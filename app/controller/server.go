package main

import (
	"net/http"
	"os"

	"argos/pkg/api"
	"argos/pkg/broker"
	"argos/pkg/client"
	"argos/pkg/executor"
	"argos/pkg/health"
	"argos/pkg/notify"
	"argos/pkg/prompt"
	"argos/pkg/provider"
	"argos/pkg/router"
	"argos/pkg/scheduler"
	"argos/pkg/store"
	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const (
	// DefaultPort is the port the API listens on
	DefaultPort = 8080

	// DefaultExchange is the exchange pipeline events are published to
	DefaultExchange = "argos.ex.events"

	correlationIDKey = "correlationID"
)

type serverConfig struct {
	Port     int    `json:"port" env:"ARGOS_SERVER_PORT"`
	LogLevel string `json:"log_level" env:"ARGOS_LOG_LEVEL"`
	Exchange string `json:"exchange" env:"ARGOS_EXCHANGE"`
}

func (c *serverConfig) defaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
}

type handlers struct {
	sc      scheduler.Scheduler
	tracker *health.Tracker
	router  *router.Router
}

// build instantiates the pipeline engine from the configuration.
// The returned function releases the broker connections.
func build(ctx context.Context, sc serverConfig, offline bool) (handlers, func(), error) {
	var hc health.Config
	if err := config.Unmarshal("health", &hc); err != nil {
		return handlers{}, nil, err
	}
	tracker := health.NewTracker(hc)

	var (
		clients []provider.Client
		costs   map[string]float64
		err     error
	)
	if offline {
		ctx.Logger().Info("offline mode, using the mock provider")
		clients = []provider.Client{provider.NewMock("mock", provider.MockOptions{})}
	} else {
		clients, costs, err = provider.NewFromConfig("providers")
		if err != nil {
			return handlers{}, nil, err
		}
		if len(clients) == 0 {
			ctx.Logger().Warn("no provider configured, every step will be a placeholder")
		}
	}

	var rc router.Config
	if err := config.Unmarshal("router", &rc); err != nil {
		return handlers{}, nil, err
	}
	r, err := router.New(tracker, rc, costs, clients...)
	if err != nil {
		return handlers{}, nil, errors.Wrap(err, "cannot create router")
	}

	var ec executor.Config
	if err := config.Unmarshal("executor", &ec); err != nil {
		return handlers{}, nil, err
	}
	exec := executor.New(r, ec)

	stages := prompt.DefaultStages()
	if raw := config.Get("stages"); raw != nil {
		stages = nil
		if err := config.Decode(raw, &stages); err != nil {
			return handlers{}, nil, errors.Wrap(err, "cannot decode stages")
		}
	}

	n, closeFunc, err := notifier(ctx, sc.Exchange)
	if err != nil {
		return handlers{}, nil, err
	}

	s, err := scheduler.NewScheduler(exec, store.NewInMemoryStore(), n, stages)
	if err != nil {
		closeFunc()
		return handlers{}, nil, err
	}
	return handlers{sc: s, tracker: tracker, router: r}, closeFunc, nil
}

// notifier logs events, and publishes them when a broker is configured
func notifier(ctx context.Context, exchange string) (notify.Notifier, func(), error) {
	if config.Get("broker") == nil && os.Getenv(broker.EnvBrokerType) == "" {
		return notify.Log(), func() {}, nil
	}
	b, err := broker.NewFromConfig(ctx, "broker")
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot create broker")
	}
	if err := b.CreateExchange(ctx, exchange); err != nil {
		b.Close()
		return nil, nil, errors.Wrapf(err, "cannot create exchange %s", exchange)
	}
	ctx.Logger().Infof("publishing events to exchange %s", exchange)
	closeFunc := func() {
		if err := b.Close(); err != nil {
			ctx.Logger().Warn(errors.Wrap(err, "cannot close broker"))
		}
	}
	return notify.Multi(notify.Log(), notify.Broker(b, exchange)), closeFunc, nil
}

func newServer(h handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(correlationID)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "argos")
	})
	e.Add(client.StartMethod, client.StartPath, h.Start)
	e.Add(client.ListMethod, client.ListPath, h.List)
	e.Add(client.GetMethod, client.GetPath, h.Get)
	e.Add(client.NextMethod, client.NextPath, h.Next)
	e.Add(client.CancelMethod, client.CancelPath, h.Cancel)
	e.Add(client.ExportMethod, client.ExportPath, h.Export)
	e.Add(client.ApproveMethod, client.ApprovePath, h.Approve)
	e.Add(client.RejectMethod, client.RejectPath, h.Reject)
	e.Add(client.EditMethod, client.EditPath, h.Edit)
	e.Add(client.CommentMethod, client.CommentPath, h.Comment)
	e.Add(client.ResolveMethod, client.ResolvePath, h.Resolve)
	e.Add(client.ProvidersMethod, client.ProvidersPath, h.Providers)
	e.Add(client.ResetProvidersMethod, client.ResetProvidersPath, h.ResetProviders)
	return e
}

// correlationID propagates the correlation ID of the request, or creates one
func correlationID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cid := c.Request().Header.Get(api.HeaderCorrelationID)
		if cid == "" {
			cid = uuid.New().String()
		}
		c.Set(correlationIDKey, cid)
		c.Response().Header().Set(api.HeaderCorrelationID, cid)
		return next(c)
	}
}

// requestContext returns the context of the request with its correlation ID
func requestContext(c echo.Context) context.Context {
	ctx := context.FromContext(c.Request().Context())
	if cid, ok := c.Get(correlationIDKey).(string); ok {
		ctx = context.WithCorrelationID(ctx, cid)
	}
	return ctx
}
