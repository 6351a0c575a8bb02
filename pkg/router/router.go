package router

import (
	"time"

	"argos/pkg/health"
	"argos/pkg/provider"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	// DefaultTimeout is the overall deadline of a Route call when none is configured
	DefaultTimeout = 60 * time.Second
)

// Config configures a Router
type Config struct {
	Timeout     time.Duration `json:"timeout" env:"ARGOS_ROUTER_TIMEOUT"`           // overall deadline of a request
	CallTimeout time.Duration `json:"call_timeout" env:"ARGOS_ROUTER_CALL_TIMEOUT"` // deadline of one provider call, 0 for the overall one
	Strategy    string        `json:"strategy" env:"ARGOS_ROUTER_STRATEGY"`
}

// Options are the per request routing options
type Options struct {
	PreferredProvider string
	Timeout           time.Duration // overrides Config.Timeout
	Strategy          Strategy      // overrides Config.Strategy
}

// Result is a successful routing result
type Result struct {
	Value        string        `json:"value"`
	ProviderUsed string        `json:"providerUsed"`
	Latency      time.Duration `json:"latency"`
	Attempts     []Attempt     `json:"attempts,omitempty"` // failed attempts before the successful one
}

// Router routes generation requests to providers, falling back on the next provider on failure.
type Router struct {
	tracker     *health.Tracker
	clients     map[string]provider.Client
	ids         []string // configuration order
	costs       map[string]float64
	timeout     time.Duration
	callTimeout time.Duration
	strategy    Strategy
	next        uint32 // round robin counter
}

// New returns a new Router over the given clients.
// costs gives the relative cost of each provider, missing providers cost nothing.
func New(tracker *health.Tracker, cfg Config, costs map[string]float64, clients ...provider.Client) (*Router, error) {
	st, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Router{
		tracker:     tracker,
		clients:     make(map[string]provider.Client),
		costs:       make(map[string]float64),
		timeout:     timeout,
		callTimeout: cfg.CallTimeout,
		strategy:    st,
	}
	for id, c := range costs {
		r.costs[id] = c
	}
	for _, c := range clients {
		if _, exists := r.clients[c.ID()]; exists {
			return nil, errors.Errorf("provider %s registered twice", c.ID())
		}
		r.clients[c.ID()] = c
		r.ids = append(r.ids, c.ID())
	}
	return r, nil
}

// Providers returns the provider identifiers in configuration order
func (r *Router) Providers() []string {
	return append([]string{}, r.ids...)
}

// Strategy returns the default strategy of the router
func (r *Router) Strategy() Strategy {
	return r.strategy
}

// Route sends the request to the providers in order until one succeeds.
// It returns ErrAllProvidersFailed if none succeeded before the deadline.
func (r *Router) Route(ctx context.Context, req provider.Request, opts Options) (Result, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	st := opts.Strategy
	if st == "" {
		st = r.strategy
	}

	candidates, err := r.order(st)
	if err != nil {
		return Result{}, err
	}
	if p := opts.PreferredProvider; p != "" {
		if _, known := r.clients[p]; !known {
			ctx.Logger().Warnf("preferred provider %s is not configured, ignoring", p)
		} else if r.tracker.IsAvailable(p) {
			candidates = withPreferred(candidates, p)
		} else {
			ctx.Logger().Debugf("preferred provider %s is unavailable", p)
		}
	}
	if len(candidates) == 0 {
		ctx.Logger().Warn("no provider available")
		return Result{}, ErrAllProvidersFailed{}
	}

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var attempts []Attempt
	for _, id := range candidates {
		if rctx.Err() != nil {
			ctx.Logger().Warnf("routing deadline of %s elapsed after %d attempts", timeout, len(attempts))
			break
		}
		pctx := context.WithProviderID(rctx, id)
		start := time.Now()
		text, err := r.call(pctx, r.clients[id], req)
		latency := time.Since(start)

		if err == nil {
			r.tracker.RecordSuccess(id)
			pctx.Logger().WithField("latency", latency).Debug("provider call succeeded")
			return Result{
				Value:        text,
				ProviderUsed: id,
				Latency:      latency,
				Attempts:     attempts,
			}, nil
		}

		a := Attempt{
			Provider: id,
			Reason:   err.Error(),
			Fatal:    provider.IsFatal(err),
			Latency:  latency,
		}
		attempts = append(attempts, a)
		if ctx.Err() != nil {
			// Cancelled by the caller, the provider is not to blame
			break
		}
		r.tracker.RecordFailure(id, a.Reason)
		if a.Fatal {
			pctx.Logger().WithField("latency", latency).Errorf("provider call failed: %s", a.Reason)
		} else {
			pctx.Logger().WithField("latency", latency).Warnf("provider call failed: %s", a.Reason)
		}
	}
	return Result{}, ErrAllProvidersFailed{Attempts: attempts}
}

type outcome struct {
	text string
	err  error
}

// call calls the provider, giving up when the context is done. A response arriving after is discarded.
func (r *Router) call(ctx context.Context, cli provider.Client, req provider.Request) (string, error) {
	cctx, cancel := ctx, context.CancelFunc(func() {})
	if r.callTimeout > 0 {
		cctx, cancel = context.WithTimeout(ctx, r.callTimeout)
	}
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: provider.Transient(errors.Errorf("provider panicked: %v", p))}
			}
		}()
		text, err := cli.Generate(cctx, req)
		done <- outcome{text, err}
	}()

	select {
	case o := <-done:
		if o.err == nil && cctx.Err() != nil {
			return "", provider.Transient(errors.Wrap(cctx.Err(), "response received after deadline"))
		}
		return o.text, o.err
	case <-cctx.Done():
		return "", provider.Transient(errors.Wrap(cctx.Err(), "no response before deadline"))
	}
}
