package main

import (
	"io"
	"os"
	"strings"

	"argos/pkg/api"
	"argos/pkg/broker"
	"argos/pkg/events"
	"argos/pkg/notify"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	// DefaultExchange is the exchange events are published to by the controller
	DefaultExchange = "argos.ex.events"

	// DefaultQueue is the queue consumed by the auditor
	DefaultQueue = "argos.q.audit"
)

type auditorConfig struct {
	Exchange string   `json:"exchange" env:"AUDIT_EXCHANGE"`
	Queue    string   `json:"queue" env:"AUDIT_QUEUE"`
	Types    []string `json:"types" env:"AUDIT_TYPES" envSeparator:","` // only one type can be bound per queue, see bindings
	Journal  string   `json:"journal" env:"AUDIT_JOURNAL"`              // file events are appended to as JSON lines
	Delete   bool     `json:"delete" env:"AUDIT_DELETE_QUEUE"`          // delete the queue on exit
	LogLevel string   `json:"log_level" env:"LOG_LEVEL"`
}

func (c *auditorConfig) defaults() {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.Queue == "" {
		c.Queue = DefaultQueue
	}
}

// bindings returns the headers the queue is bound with.
// Headers exchanges match all headers, so only a single type can be filtered at the broker, others are filtered on receive.
func (c auditorConfig) bindings() map[string]string {
	if len(c.Types) != 1 {
		return nil
	}
	return map[string]string{api.HeaderType: strings.ToUpper(c.Types[0])}
}

type auditor struct {
	conf     auditorConfig
	broker   broker.Broker
	notifier notify.Notifier
	types    map[events.EventType]bool
	closers  []io.Closer
}

func newAuditor(ctx context.Context, c auditorConfig) (*auditor, error) {
	b, err := broker.NewFromConfig(ctx, "broker")
	if err != nil {
		return nil, errors.Wrap(err, "cannot create broker")
	}
	a := &auditor{conf: c, broker: b, closers: []io.Closer{b}}

	notifiers := []notify.Notifier{notify.Log()}
	if c.Journal != "" {
		f, err := os.OpenFile(c.Journal, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			a.Close()
			return nil, errors.Wrapf(err, "cannot open journal %s", c.Journal)
		}
		a.closers = append(a.closers, f)
		notifiers = append(notifiers, notify.Journal(f))
	}
	a.notifier = notify.Multi(notifiers...)

	if len(c.Types) > 0 {
		a.types = make(map[events.EventType]bool, len(c.Types))
		for _, t := range c.Types {
			a.types[events.EventType(strings.ToUpper(strings.TrimSpace(t)))] = true
		}
	}

	if err := b.CreateExchange(ctx, c.Exchange); err != nil {
		a.Close()
		return nil, errors.Wrapf(err, "cannot create exchange %s", c.Exchange)
	}
	if err := b.CreateQueue(ctx, c.Queue, c.Exchange, c.bindings()); err != nil {
		a.Close()
		return nil, errors.Wrapf(err, "cannot create queue %s", c.Queue)
	}
	return a, nil
}

// Run consumes events until ctx is done
func (a *auditor) Run(ctx context.Context) error {
	err := a.broker.Receive(ctx, a.handle, a.handleError, a.conf.Queue)
	if a.conf.Delete {
		if derr := a.broker.DeleteQueue(context.Background(), a.conf.Queue); derr != nil {
			ctx.Logger().Warnf("cannot delete queue %s: %v", a.conf.Queue, derr)
		}
	}
	return err
}

func (a *auditor) handle(ctx context.Context, evt events.Event) error {
	if a.types != nil && !a.types[evt.Type] {
		return nil
	}
	return a.notifier.Notify(ctx, evt)
}

func (a *auditor) handleError(ctx context.Context, err error) {
	ctx.Logger().Errorf("cannot audit event: %v", err)
}

// Close closes the journal and the broker
func (a *auditor) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
