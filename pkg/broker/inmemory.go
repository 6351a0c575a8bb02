package broker

import (
	"sync"
	"time"

	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	// InMemoryType Broker type for a broker living in the process
	InMemoryType Type = "inmemory"
)

func init() {
	f := func(ctx context.Context, c interface{}) (Broker, error) {
		asConf, isConf := c.(*InMemoryConfig)
		if !isConf {
			return nil, errors.Errorf("given configuration struct is not type %T", &InMemoryConfig{})
		}
		return NewInMemoryBroker(*asConf), nil
	}
	register(InMemoryType, f, func() interface{} { return &InMemoryConfig{} })
}

// InMemoryConfig is configuration for the in memory broker implementation
type InMemoryConfig struct {
	QueueSize int `json:"queue_size" env:"BROKER_INMEMORY_QUEUE_SIZE"`
}

type binding struct {
	queue   string
	headers map[string]string
}

type inMemory struct {
	mu        sync.RWMutex
	exchanges map[string][]binding
	queues    map[string]chan events.Event
	size      int
	closed    bool
}

// NewInMemoryBroker returns a Broker delivering events within the process.
// Queues are bounded, publishing to a full queue fails.
func NewInMemoryBroker(conf InMemoryConfig) Broker {
	size := conf.QueueSize
	if size <= 0 {
		size = 1024
	}
	return &inMemory{
		exchanges: make(map[string][]binding),
		queues:    make(map[string]chan events.Event),
		size:      size,
	}
}

func (b *inMemory) Publish(ctx context.Context, evt events.Event, exchange, routingkey string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New("broker closed")
	}
	bindings, exists := b.exchanges[exchange]
	if !exists {
		return errors.Errorf("exchange %s not found", exchange)
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	for _, bd := range bindings {
		if !matches(evt, bd.headers) {
			continue
		}
		select {
		case b.queues[bd.queue] <- evt:
		default:
			return errors.Errorf("queue %s is full", bd.queue)
		}
	}
	return nil
}

func matches(evt events.Event, headers map[string]string) bool {
	values := map[string]string{
		api.HeaderPipelineID:    evt.PipelineID,
		api.HeaderStepID:        evt.StepID,
		api.HeaderCorrelationID: evt.CorrelationID,
		api.HeaderType:          string(evt.Type),
	}
	for k, v := range headers {
		if values[k] != v {
			return false
		}
	}
	return true
}

func (b *inMemory) Receive(ctx context.Context, f HandleFunc, ferr ErrorHandler, qname string) error {
	b.mu.RLock()
	q, exists := b.queues[qname]
	b.mu.RUnlock()
	if !exists {
		return errors.Errorf("queue %s not found", qname)
	}
	ctx.Logger().Infof("receiving events from queue %s", qname)

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, open := <-q:
			if !open {
				return errors.New("delivery channel closed")
			}
			ectx := context.WithCorrelationID(context.WithStepID(context.WithPipelineID(context.Background(), evt.PipelineID), evt.StepID), evt.CorrelationID)
			if err := f(ectx, evt); err != nil {
				ectx.Logger().Errorf("cannot handle event %s, %s", evt, err)
				if ferr != nil {
					ferr(ectx, err)
				}
			}
		}
	}
}

func (b *inMemory) CreateExchange(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.exchanges[name]; !exists {
		b.exchanges[name] = nil
	}
	return nil
}

func (b *inMemory) CreateQueue(ctx context.Context, name, bindTo string, headers map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.exchanges[bindTo]; !exists {
		return errors.Errorf("exchange %s not found", bindTo)
	}
	if _, exists := b.queues[name]; !exists {
		b.queues[name] = make(chan events.Event, b.size)
	}
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	b.exchanges[bindTo] = append(b.exchanges[bindTo], binding{queue: name, headers: h})
	return nil
}

func (b *inMemory) DeleteQueue(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, exists := b.queues[name]
	if !exists {
		return nil
	}
	delete(b.queues, name)
	close(q)
	for ex, bindings := range b.exchanges {
		var kept []binding
		for _, bd := range bindings {
			if bd.queue != name {
				kept = append(kept, bd)
			}
		}
		b.exchanges[ex] = kept
	}
	return nil
}

func (b *inMemory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for name, q := range b.queues {
		close(q)
		delete(b.queues, name)
	}
	return nil
}
