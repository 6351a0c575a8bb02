package notify

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"argos/pkg/broker"
	"argos/pkg/events"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	context.SetOutput(&buf)
	defer context.SetOutput(os.Stderr)

	ctx := context.WithPipelineID(context.Background(), "pid")
	err := Log().Notify(ctx, events.Event{Type: events.TypeStepApproved, PipelineID: "pid", StepID: "risks"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "event=STEP_APPROVED")
	assert.Contains(t, buf.String(), "pipeline_id=pid")
}

func TestBroker(t *testing.T) {
	ctx := context.Background()
	b := broker.NewInMemoryBroker(broker.InMemoryConfig{})
	defer b.Close()

	n := Broker(b, "argos")
	require.Error(t, n.Notify(ctx, events.Event{Type: events.TypeStepApproved}))

	require.NoError(t, b.CreateExchange(ctx, "argos"))
	require.NoError(t, b.CreateQueue(ctx, "audit", "argos", nil))
	require.NoError(t, n.Notify(ctx, events.Event{Type: events.TypeStepApproved, PipelineID: "pid"}))

	received := make(chan events.Event, 1)
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.Receive(rctx, func(ctx context.Context, evt events.Event) error {
		received <- evt
		return nil
	}, nil, "audit")

	select {
	case evt := <-received:
		assert.Equal(t, "pid", evt.PipelineID)
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}
}

func TestMulti(t *testing.T) {
	ctx := context.Background()
	var calls int
	ok := NotifierFunc(func(ctx context.Context, evt events.Event) error {
		calls++
		return nil
	})
	ko := NotifierFunc(func(ctx context.Context, evt events.Event) error {
		calls++
		return errors.New("unreachable")
	})

	require.NoError(t, Multi(ok, Nop(), ok).Notify(ctx, events.Event{}))
	assert.Equal(t, 2, calls)

	calls = 0
	err := Multi(ko, ok).Notify(ctx, events.Event{})
	assert.EqualError(t, err, "unreachable")
	assert.Equal(t, 2, calls)

	err = Multi(ko, ko).Notify(ctx, events.Event{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 notifiers failed")

	require.NoError(t, Multi().Notify(ctx, events.Event{}))
}

func TestJournal(t *testing.T) {
	var buf bytes.Buffer
	n := Journal(&buf)
	ctx := context.Background()
	require.NoError(t, n.Notify(ctx, events.Event{Type: events.TypePipelineStarted, PipelineID: "pid", Data: events.PipelineData{Query: "q"}}))
	require.NoError(t, n.Notify(ctx, events.Event{Type: events.TypeStepApproved, PipelineID: "pid", StepID: "risks"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var evt events.Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &evt))
	assert.Equal(t, events.TypeStepApproved, evt.Type)
	assert.Equal(t, "risks", evt.StepID)
	assert.Contains(t, lines[0], `"query":"q"`)
}
