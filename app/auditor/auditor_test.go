package main

import (
	"bufio"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"argos/pkg/api"
	"argos/pkg/events"
	"argos/pkg/util/config"
	"argos/pkg/util/context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readJournal(t *testing.T, path string) []events.Event {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var res []events.Event
	s := bufio.NewScanner(f)
	for s.Scan() {
		var evt events.Event
		require.NoError(t, json.Unmarshal(s.Bytes(), &evt))
		res = append(res, evt)
	}
	return res
}

func TestAuditor(t *testing.T) {
	dir, err := ioutil.TempDir("", "auditor")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.NoError(t, config.ReadConfig(strings.NewReader(`{"broker": {"type": "inmemory"}}`)))
	defer config.ReadConfig(strings.NewReader(`{}`))

	c := auditorConfig{
		Journal: filepath.Join(dir, "events.jsonl"),
		Types:   []string{"step_approved", "PIPELINE_COMPLETED"},
		Delete:  true,
	}
	c.defaults()
	assert.Nil(t, c.bindings())

	ctx := context.Background()
	a, err := newAuditor(ctx, c)
	require.NoError(t, err)
	defer a.Close()

	published := []events.Event{
		{Type: events.TypeStepCompleted, PipelineID: "pid", StepID: "risks"},
		{Type: events.TypeStepApproved, PipelineID: "pid", StepID: "risks", CorrelationID: "cid"},
		{Type: events.TypePipelineCompleted, PipelineID: "pid"},
	}
	for _, evt := range published {
		require.NoError(t, a.broker.Publish(ctx, evt, DefaultExchange, evt.PipelineID))
	}

	rctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- a.Run(rctx)
	}()
	require.Eventually(t, func() bool {
		b, err := ioutil.ReadFile(c.Journal)
		return err == nil && strings.Count(string(b), "\n") == 2
	}, time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	journal := readJournal(t, c.Journal)
	require.Len(t, journal, 2)
	assert.Equal(t, events.TypeStepApproved, journal[0].Type)
	assert.Equal(t, "cid", journal[0].CorrelationID)
	assert.Equal(t, events.TypePipelineCompleted, journal[1].Type)

	// Queue deleted on exit
	require.Error(t, a.broker.Receive(ctx, a.handle, nil, c.Queue))
}

func TestBindings(t *testing.T) {
	c := auditorConfig{Types: []string{"step_rejected"}}
	assert.Equal(t, map[string]string{api.HeaderType: "STEP_REJECTED"}, c.bindings())
}

func TestNewAuditorWithoutBroker(t *testing.T) {
	require.NoError(t, config.ReadConfig(strings.NewReader(`{}`)))
	os.Unsetenv("BROKER_TYPE")
	_, err := newAuditor(context.Background(), auditorConfig{Exchange: DefaultExchange, Queue: DefaultQueue})
	require.Error(t, err)
}
