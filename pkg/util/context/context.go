package context

import (
	gocontext "context"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger = newLogger(os.Stderr)
)

// Context extends the regular golang context.Context interface with functionnalities such as access to logger.
type Context interface {
	gocontext.Context
	Logger() *logrus.Entry
	PipelineID() string
	StepID() string
	CorrelationID() string
	ProviderID() string
}

// CancelFunc tells an operation to abandon its work.
type CancelFunc = gocontext.CancelFunc

// Background returns a non-nil, empty Context.
func Background() Context {
	return ctx{
		Context: gocontext.Background(),
	}
}

// FromContext returns a new context from the given go context.
func FromContext(c gocontext.Context) Context {
	return ctx{
		Context: c,
	}
}

// WithPipelineID returns a copy of the context with a pipelineID.
func WithPipelineID(c Context, pipelineID string) Context {
	n := copyOf(c, c)
	n.pipelineID = pipelineID
	return n
}

// WithStepID returns a copy of the context with a stepID.
func WithStepID(c Context, stepID string) Context {
	n := copyOf(c, c)
	n.stepID = stepID
	return n
}

// WithCorrelationID returns a copy of the context with a correlationID.
func WithCorrelationID(c Context, correlationID string) Context {
	n := copyOf(c, c)
	n.correlationID = correlationID
	return n
}

// WithProviderID returns a copy of the context with a providerID.
func WithProviderID(c Context, providerID string) Context {
	n := copyOf(c, c)
	n.providerID = providerID
	return n
}

// WithTimeout returns a copy of the context, keeping its values, that is cancelled after the given duration.
func WithTimeout(c Context, d time.Duration) (Context, CancelFunc) {
	gc, cancel := gocontext.WithTimeout(c, d)
	return copyOf(c, gc), cancel
}

// WithCancel returns a copy of the context, keeping its values, with a new Done channel.
func WithCancel(c Context) (Context, CancelFunc) {
	gc, cancel := gocontext.WithCancel(c)
	return copyOf(c, gc), cancel
}

// SetLevel sets the level of the logger shared by all contexts.
func SetLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logger.SetLevel(l)
	return nil
}

// SetOutput sets the output of the logger shared by all contexts.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// RootLogger returns the logger shared by all contexts.
func RootLogger() *logrus.Logger {
	return logger
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
	return l
}

func copyOf(c Context, parent gocontext.Context) ctx {
	return ctx{
		Context:       parent,
		pipelineID:    c.PipelineID(),
		stepID:        c.StepID(),
		correlationID: c.CorrelationID(),
		providerID:    c.ProviderID(),
	}
}

type ctx struct {
	gocontext.Context
	pipelineID    string
	stepID        string
	correlationID string
	providerID    string
}

func (c ctx) Logger() *logrus.Entry {
	e := logrus.NewEntry(logger)
	if c.pipelineID != "" {
		e = e.WithField("pipeline_id", c.pipelineID)
	}
	if c.stepID != "" {
		e = e.WithField("step_id", c.stepID)
	}
	if c.correlationID != "" {
		e = e.WithField("correlation_id", c.correlationID)
	}
	if c.providerID != "" {
		e = e.WithField("provider", c.providerID)
	}
	return e
}

func (c ctx) PipelineID() string {
	return c.pipelineID
}

func (c ctx) StepID() string {
	return c.stepID
}

func (c ctx) CorrelationID() string {
	return c.correlationID
}

func (c ctx) ProviderID() string {
	return c.providerID
}
