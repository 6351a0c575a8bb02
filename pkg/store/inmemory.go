package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"argos/pkg/api"
	"argos/pkg/util/context"
)

type record struct {
	mu sync.Mutex // one writer per pipeline
	p  *api.Pipeline
}

// NewInMemoryStore returns a new InMemory store
func NewInMemoryStore() Store {
	return &inMemory{
		pipelines: make(map[string]*record),
		now:       time.Now,
	}
}

type inMemory struct {
	mu        sync.RWMutex // guards the map only
	pipelines map[string]*record
	now       func() time.Time
}

func (s *inMemory) CreatePipeline(ctx context.Context, p api.Pipeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pipelines[p.ID]; exists {
		return AlreadyExistsError(fmt.Sprintf("pipeline %s", p.ID))
	}
	s.pipelines[p.ID] = &record{p: p.Clone()}
	return nil
}

func (s *inMemory) UpdatePipeline(ctx context.Context, pid string, f UpdateFunc) (api.PipelineView, error) {
	r, err := s.record(pid)
	if err != nil {
		return api.PipelineView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.p.Clone()
	if err := f(p); err != nil {
		return api.PipelineView{}, err
	}
	p.UpdatedAt = s.now()
	r.p = p
	return p.View(), nil
}

func (s *inMemory) GetPipeline(ctx context.Context, pid string) (api.PipelineView, error) {
	r, err := s.record(pid)
	if err != nil {
		return api.PipelineView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.p.View(), nil
}

func (s *inMemory) ListPipelines(ctx context.Context) ([]api.PipelineInfo, error) {
	s.mu.RLock()
	records := make([]*record, 0, len(s.pipelines))
	for _, r := range s.pipelines {
		records = append(records, r)
	}
	s.mu.RUnlock()

	res := make([]api.PipelineInfo, 0, len(records))
	for _, r := range records {
		r.mu.Lock()
		res = append(res, r.p.Info())
		r.mu.Unlock()
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *inMemory) record(pid string) (*record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, exists := s.pipelines[pid]
	if !exists {
		return nil, NotFoundError(fmt.Sprintf("pipeline %s", pid))
	}
	return r, nil
}
