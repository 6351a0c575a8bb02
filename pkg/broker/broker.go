package broker

import (
	"os"
	"strings"
	"sync"

	"argos/pkg/events"
	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	// EnvBrokerType is the env variable giving the broker type when the config has none
	EnvBrokerType = "BROKER_TYPE"
)

var (
	factories = make(map[Type]func(context.Context, interface{}) (Broker, error))
	configs   = make(map[Type]func() interface{})
	mutex     = &sync.Mutex{}
)

func register(t Type, f func(context.Context, interface{}) (Broker, error), c func() interface{}) {
	mutex.Lock()
	defer mutex.Unlock()
	factories[t] = f
	configs[t] = c
}

// Type is a string designing the implementation of Broker interface
type Type string

// HandleFunc is the function called when an event is received from the receive queue.
type HandleFunc func(ctx context.Context, evt events.Event) error

// ErrorHandler is the function called when the HandleFunc returns an error.
type ErrorHandler func(ctx context.Context, err error)

// Broker publishes and receives events through exchanges and queues.
type Broker interface {
	// Publish publishes the given event to the exchange.
	Publish(ctx context.Context, evt events.Event, exchange, routingkey string) error

	// Receive consumes events from the queue.
	// f is called for each event received.
	// this is a blocking function, should be called in a goroutine. It returns when ctx is done.
	Receive(ctx context.Context, f HandleFunc, ferr ErrorHandler, qname string) error

	// CreateExchange declares a headers exchange.
	CreateExchange(ctx context.Context, name string) error

	// CreateQueue creates a new queue bound to the exchange.
	// Events are routed to the queue when all the given headers match, every event is routed when there is none.
	CreateQueue(ctx context.Context, name, bindTo string, headers map[string]string) error

	// DeleteQueue deletes the queue designated by the given name.
	DeleteQueue(ctx context.Context, name string) error

	// Close closes all connections.
	Close() error
}

// NewFromConfig returns a new instance of Broker based on configuration from config file and/or env variables
func NewFromConfig(ctx context.Context, configKey string) (Broker, error) {
	configTypeKey := "type"
	if configKey != "" {
		configTypeKey = configKey + ".type"
	}
	// Get broker type
	var t string
	if typ := config.Get(configTypeKey); typ != nil {
		asString, isString := typ.(string)
		if !isString {
			return nil, errors.Errorf("config entry with key %s is not a string", configTypeKey)
		}
		t = asString
	} else {
		t = os.Getenv(EnvBrokerType)
	}
	if t == "" {
		return nil, errors.Errorf("broker type could not be found neither in config with key %s nor env %s", configTypeKey, EnvBrokerType)
	}

	typ := Type(strings.ToLower(t))
	mutex.Lock()
	newConfig, ok := configs[typ]
	mutex.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown broker type %s", typ)
	}
	v := newConfig()
	if err := config.Unmarshal(configKey+"."+string(typ), v); err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal broker config")
	}

	return New(ctx, typ, v)
}

// NewFromEnv returns a new instance of Broker based on env variables
func NewFromEnv(ctx context.Context) (Broker, error) {
	//NewFromConfig fallbacks to env when necessary
	return NewFromConfig(ctx, "")
}

// New returns a new instance of Broker based on given configuration struct
func New(ctx context.Context, t Type, c interface{}) (Broker, error) {
	mutex.Lock()
	f, ok := factories[t]
	mutex.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown broker type %s", t)
	}

	return f(ctx, c)
}
