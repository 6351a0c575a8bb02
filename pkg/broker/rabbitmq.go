package broker

import (
	"encoding/json"
	"fmt"
	"time"

	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/store"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

const (
	// RabbitMQType Broker type RabbitMQ
	RabbitMQType Type = "rabbitmq"
)

func init() {
	f := func(ctx context.Context, c interface{}) (Broker, error) {
		asRabbitMQConf, isRabbitMQConf := c.(*RabbitMQConfig)
		if !isRabbitMQConf {
			return nil, errors.Errorf("given configuration struct is not type %T", &RabbitMQConfig{})
		}
		return NewRabbitMQBroker(ctx, *asRabbitMQConf)
	}
	register(RabbitMQType, f, func() interface{} { return &RabbitMQConfig{} })
}

type rabbitmq struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	config RabbitMQConfig
}

// RabbitMQConfig is configuration for rabbitmq broker implementation
type RabbitMQConfig struct {
	User     string `json:"user" env:"BROKER_RABBITMQ_USER"`
	Password string `json:"password" env:"BROKER_RABBITMQ_PASSWORD"`
	URI      string `json:"uri" env:"BROKER_RABBITMQ_URI"`
}

// URL returns the amqp url, with the password masked if requested
func (c RabbitMQConfig) URL(masked bool) string {
	pwd := c.Password
	if masked && pwd != "" {
		pwd = "****"
	}
	return fmt.Sprintf("amqp://%s:%s@%s", c.User, pwd, c.URI)
}

//NewRabbitMQBroker returns a Broker implementation based on RabbitMQ.
func NewRabbitMQBroker(ctx context.Context, conf RabbitMQConfig) (Broker, error) {
	ctx.Logger().Infof("connecting to rabbitmq with url '%s'", conf.URL(true))
	conn, err := amqp.Dial(conf.URL(false))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to rabbitmq with url '%s'", conf.URL(true))
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "cannot open channel to rabbitmq")
	}
	err = ch.Qos(1, 0, false)
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "cannot set rabbitmq Qos controls")
	}
	return &rabbitmq{
		conn:   conn,
		ch:     ch,
		config: conf,
	}, nil
}

func (q *rabbitmq) Publish(ctx context.Context, evt events.Event, exchange, routingkey string) error {
	ctx.Logger().Tracef("publishing event %s to exchange %s", evt, exchange)
	msg, err := toPublishing(evt)
	if err != nil {
		return err
	}
	return q.ch.Publish(
		exchange,   // exchange
		routingkey, // routing key
		false,      // mandatory
		false,      // immediate
		msg)
}

// toPublishing returns the amqp message for the event, its metadata is carried by headers
func toPublishing(evt events.Event) (amqp.Publishing, error) {
	data := evt.Data
	if data == nil {
		data = struct{}{}
	}
	body, err := json.Marshal(data)
	if err != nil {
		return amqp.Publishing{}, errors.Wrapf(err, "cannot marshal data of event %s", evt)
	}
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	return amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   evt.Time,
		Body:        body,
		Headers: amqp.Table{
			api.HeaderPipelineID:    evt.PipelineID,
			api.HeaderStepID:        evt.StepID,
			api.HeaderCorrelationID: evt.CorrelationID,
			api.HeaderType:          string(evt.Type),
		},
	}, nil
}

// fromDelivery returns the event carried by the amqp message
func fromDelivery(d amqp.Delivery) (events.Event, error) {
	if d.ContentType != "application/json" {
		return events.Event{}, errors.Errorf("unsupported content-type %s", d.ContentType)
	}
	var data interface{}
	if err := json.Unmarshal(d.Body, &data); err != nil {
		return events.Event{}, errors.Wrapf(err, "cannot unmarshal received event %s for step %s of pipeline %s", header(d, api.HeaderType), header(d, api.HeaderStepID), header(d, api.HeaderPipelineID))
	}
	evt := events.Event{
		Type:          events.EventType(header(d, api.HeaderType)),
		PipelineID:    header(d, api.HeaderPipelineID),
		StepID:        header(d, api.HeaderStepID),
		CorrelationID: header(d, api.HeaderCorrelationID),
		Data:          data,
		Time:          d.Timestamp,
	}
	if evt.Type == "" {
		return events.Event{}, errors.Errorf("received event has no %s header", api.HeaderType)
	}
	return evt, nil
}

func header(d amqp.Delivery, key string) string {
	s, _ := d.Headers[key].(string)
	return s
}

func (q *rabbitmq) Receive(ctx context.Context, f HandleFunc, ferr ErrorHandler, qname string) error {
	ctx.Logger().Infof("receiving events from queue %s", qname)
	msgs, err := q.ch.Consume(
		qname,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "cannot register consumer to queue %s", qname)
	}

	for {
		var d amqp.Delivery
		var open bool
		select {
		case <-ctx.Done():
			return nil
		case d, open = <-msgs:
		}
		if !open {
			return errors.New("delivery channel closed")
		}

		evt, err := fromDelivery(d)
		if err != nil {
			ctx.Logger().Warnf("dropping event: %s", err)
			d.Reject(false)
			if ferr != nil {
				ferr(ctx, err)
			}
			continue
		}

		// Create context
		ectx := context.WithCorrelationID(context.WithStepID(context.WithPipelineID(context.Background(), evt.PipelineID), evt.StepID), evt.CorrelationID)
		if err := f(ectx, evt); err != nil {
			ectx.Logger().Errorf("cannot handle event %s, %s", evt, err)
			if ferr != nil {
				ferr(ectx, err)
			}
			if errors.As(errors.Cause(err), &store.ErrNotFound{}) {
				reject(ectx, evt, &d)
			} else {
				nack(ectx, evt, &d)
			}
			continue
		}
		ack(ectx, evt, &d)
	}
}

// ack acknowledge the event and log error if the acknowledgment returns an error.
func ack(ctx context.Context, evt events.Event, d *amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		ctx.Logger().Errorf("cannot ack event %s, %s", evt, err)
	}
}

// nack negatively acknowledge the event, requeueing it, and log error if the acknowledgment returns an error.
func nack(ctx context.Context, evt events.Event, d *amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		ctx.Logger().Errorf("cannot nack event %s, %s", evt, err)
	}
}

// reject negatively acknowledge the event without requeueing and log error if the acknowledgment returns an error.
func reject(ctx context.Context, evt events.Event, d *amqp.Delivery) {
	if err := d.Reject(false); err != nil {
		ctx.Logger().Errorf("cannot reject event %s, %s", evt, err)
	}
}

func (q *rabbitmq) CreateExchange(ctx context.Context, name string) error {
	ctx.Logger().Tracef("declaring exchange %s", name)
	err := q.ch.ExchangeDeclare(
		name,                 // name
		amqp.ExchangeHeaders, // kind
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return errors.Wrapf(err, "cannot declare exchange %s", name)
	}
	return nil
}

func (q *rabbitmq) CreateQueue(ctx context.Context, name, bindTo string, headers map[string]string) error {
	ctx.Logger().Tracef("creating queue %s bound to %s with routing headers %v", name, bindTo, headers)
	_, err := q.ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return errors.Wrapf(err, "cannot declare queue %s", name)
	}

	err = q.ch.QueueBind(
		name,   // queue name
		"",     // routing key
		bindTo, // exchange
		false,
		bindingArgs(headers),
	)
	if err != nil {
		return errors.Wrapf(err, "cannot bind queue %s to exchange %s with routing headers %v", name, bindTo, headers)
	}
	return nil
}

// bindingArgs returns the headers exchange binding arguments: all headers must match
func bindingArgs(headers map[string]string) amqp.Table {
	args := amqp.Table{
		"x-match": "all",
	}
	for k, v := range headers {
		args[k] = v
	}
	return args
}

func (q *rabbitmq) DeleteQueue(ctx context.Context, name string) error {
	ctx.Logger().Tracef("deleting queue %s", name)
	if _, err := q.ch.QueueDelete(
		name, //queue name
		false,
		false,
		false,
	); err != nil {
		return errors.Wrapf(err, "cannot delete queue %s", name)
	}
	return nil
}

func (q *rabbitmq) Close() error {
	if err := q.ch.Close(); err != nil {
		return err
	}
	if err := q.conn.Close(); err != nil {
		return err
	}
	return nil
}
