package store

import (
	"sync"
	"testing"
	"time"

	"argos/pkg/api"
	"argos/pkg/util/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeline(id string, created time.Time) api.Pipeline {
	return api.Pipeline{
		ID:        id,
		Query:     "q " + id,
		Status:    api.PipelineActive,
		Steps:     []api.Step{{ID: "s0", Status: api.StatusPending}, {ID: "s1", Status: api.StatusPending}},
		CreatedAt: created,
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	p := pipeline("p1", time.Now())
	require.NoError(t, s.CreatePipeline(ctx, p))

	err := s.CreatePipeline(ctx, p)
	require.Error(t, err)
	assert.True(t, errors.As(errors.Cause(err), &ErrAlreadyExists{}))

	v, err := s.GetPipeline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "q p1", v.Query)
	assert.Equal(t, 2, v.Total)

	// The stored pipeline is a copy
	p.Steps[0].Status = api.StatusRunning
	v, _ = s.GetPipeline(ctx, "p1")
	assert.Equal(t, api.StatusPending, v.Steps[0].Status)

	_, err = s.GetPipeline(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.As(errors.Cause(err), &ErrNotFound{}))
	assert.Equal(t, "pipeline missing not found", err.Error())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.CreatePipeline(ctx, pipeline("p1", time.Now())))

	t.Run("applied", func(t *testing.T) {
		v, err := s.UpdatePipeline(ctx, "p1", func(p *api.Pipeline) error {
			p.Steps[0].Status = api.StatusRunning
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, api.StatusRunning, v.Steps[0].Status)
		assert.False(t, v.UpdatedAt.IsZero())

		// Snapshot is not shared with the store
		v.Steps[0].Status = api.StatusApproved
		got, _ := s.GetPipeline(ctx, "p1")
		assert.Equal(t, api.StatusRunning, got.Steps[0].Status)
	})

	t.Run("rolled_back", func(t *testing.T) {
		_, err := s.UpdatePipeline(ctx, "p1", func(p *api.Pipeline) error {
			p.Steps[0].Status = api.StatusCompleted
			p.Steps[1].Status = api.StatusRunning
			return errors.New("invalid")
		})
		require.Error(t, err)
		got, _ := s.GetPipeline(ctx, "p1")
		assert.Equal(t, api.StatusRunning, got.Steps[0].Status)
		assert.Equal(t, api.StatusPending, got.Steps[1].Status)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := s.UpdatePipeline(ctx, "missing", func(p *api.Pipeline) error { return nil })
		assert.True(t, errors.As(errors.Cause(err), &ErrNotFound{}))
	})
}

func TestUpdateSerialized(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.CreatePipeline(ctx, pipeline("p1", time.Now())))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdatePipeline(ctx, "p1", func(p *api.Pipeline) error {
				p.Steps[0].Attempts++
				return nil
			})
		}()
	}
	wg.Wait()
	v, err := s.GetPipeline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 100, v.Steps[0].Attempts)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	now := time.Now()
	require.NoError(t, s.CreatePipeline(ctx, pipeline("old", now.Add(-time.Hour))))
	require.NoError(t, s.CreatePipeline(ctx, pipeline("new", now)))

	infos, err := s.ListPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "new", infos[0].ID)
	assert.Equal(t, "old", infos[1].ID)
	assert.Equal(t, api.PipelineActive, infos[0].Status)
}
