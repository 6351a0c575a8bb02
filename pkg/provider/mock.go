package provider

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"argos/pkg/api"
	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
)

const (
	// MockKind Provider kind for the in-process scripted provider
	MockKind Kind = "mock"
)

func init() {
	f := func(c Config) (Client, error) {
		var opts MockOptions
		if err := config.Decode(c.Options, &opts); err != nil {
			return nil, errors.Wrapf(err, "cannot decode options of mock provider %s", c.ID)
		}
		return NewMock(c.ID, opts), nil
	}
	register(MockKind, f)
}

// MockOptions configures the default behaviour of a Mock
type MockOptions struct {
	Response string        `json:"response"` // text returned, a generated analysis when empty
	Delay    time.Duration `json:"delay"`
	Fail     string        `json:"fail"`  // when set, every call fails with this reason
	Fatal    bool          `json:"fatal"` // failures are fatal instead of transient
}

// Reply is a scripted reply of a Mock
type Reply struct {
	Text  string
	Err   error
	Delay time.Duration
}

// Mock is an in-process Client replying scripted replies first, then following its options.
type Mock struct {
	id   string
	opts MockOptions

	mu       sync.Mutex
	script   []Reply
	requests []Request
}

// NewMock returns a new Mock
func NewMock(id string, opts MockOptions) *Mock {
	return &Mock{
		id:   id,
		opts: opts,
	}
}

// Push appends scripted replies
func (m *Mock) Push(replies ...Reply) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, replies...)
	return m
}

// Requests returns the requests received so far
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request{}, m.requests...)
}

// Calls returns the number of requests received so far
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// ID is implementation of Client interface
func (m *Mock) ID() string {
	return m.id
}

// Generate is implementation of Client interface
func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	reply := m.next(req)

	if reply.Delay > 0 {
		t := time.NewTimer(reply.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", Transient(errors.Wrap(ctx.Err(), "request abandoned"))
		case <-t.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return "", Transient(errors.Wrap(err, "request abandoned"))
	}
	if reply.Err != nil {
		return "", reply.Err
	}
	return reply.Text, nil
}

func (m *Mock) next(req Request) Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		r := m.script[0]
		m.script = m.script[1:]
		return r
	}

	r := Reply{Delay: m.opts.Delay}
	switch {
	case m.opts.Fail != "" && m.opts.Fatal:
		r.Err = Fatal(errors.New(m.opts.Fail))
	case m.opts.Fail != "":
		r.Err = Transient(errors.New(m.opts.Fail))
	case m.opts.Response != "":
		r.Text = m.opts.Response
	default:
		r.Text = SampleAnalysis(m.id, req)
	}
	return r
}

// SampleAnalysis returns a well formed analysis for the request, with tagged sections and a score.
func SampleAnalysis(providerID string, req Request) string {
	subject := firstLine(req.Prompt)
	// Score is derived from the prompt so that replies are stable
	score := api.MinScore + len(req.Prompt)%(api.MaxScore-api.MinScore+1)

	var b strings.Builder
	fmt.Fprintf(&b, "Analysis by %s of: %s\n\n", providerID, subject)
	b.WriteString("KEY FINDINGS:\n")
	b.WriteString("- The request has been reviewed against the given constraints\n")
	b.WriteString("- Previous stages were taken into account\n\n")
	b.WriteString("RISKS:\n")
	b.WriteString("- Assumptions have not been validated with real data\n\n")
	b.WriteString("RECOMMENDATIONS:\n")
	b.WriteString("- Validate the findings with a domain expert\n\n")
	fmt.Fprintf(&b, "SCORE: %d/10\n", score)
	return b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
