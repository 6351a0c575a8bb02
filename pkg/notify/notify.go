package notify

import (
	"encoding/json"
	"io"
	"sync"

	"argos/pkg/broker"
	"argos/pkg/events"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

// Notifier is told about every pipeline change.
// Callers log returned errors, a failing notifier never fails a pipeline operation.
type Notifier interface {
	Notify(ctx context.Context, evt events.Event) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, evt events.Event) error

// Notify is implementation of Notifier interface
func (f NotifierFunc) Notify(ctx context.Context, evt events.Event) error {
	return f(ctx, evt)
}

// Log returns a Notifier writing events to the context logger
func Log() Notifier {
	return NotifierFunc(func(ctx context.Context, evt events.Event) error {
		e := ctx.Logger().WithField("event", evt.Type)
		if evt.Data != nil {
			e = e.WithField("data", evt.Data)
		}
		e.Info(evt.String())
		return nil
	})
}

// Journal returns a Notifier writing one JSON document per event to w
func Journal(w io.Writer) Notifier {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return NotifierFunc(func(ctx context.Context, evt events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(evt); err != nil {
			return errors.Wrapf(err, "cannot write event %s", evt)
		}
		return nil
	})
}

// Broker returns a Notifier publishing events to the exchange of the broker
func Broker(b broker.Broker, exchange string) Notifier {
	return NotifierFunc(func(ctx context.Context, evt events.Event) error {
		if err := b.Publish(ctx, evt, exchange, evt.PipelineID); err != nil {
			return errors.Wrapf(err, "cannot publish event %s to exchange %s", evt, exchange)
		}
		return nil
	})
}

// Multi returns a Notifier notifying all the given ones, even when some fail.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, evt events.Event) error {
		var errs []error
		for _, n := range notifiers {
			if err := n.Notify(ctx, evt); err != nil {
				errs = append(errs, err)
			}
		}
		switch len(errs) {
		case 0:
			return nil
		case 1:
			return errs[0]
		}
		return errors.Errorf("%d notifiers failed, first error: %s", len(errs), errs[0])
	})
}

// Nop returns a Notifier doing nothing
func Nop() Notifier {
	return NotifierFunc(func(ctx context.Context, evt events.Event) error {
		return nil
	})
}
