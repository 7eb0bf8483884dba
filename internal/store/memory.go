package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/groupcollage/api/internal/model"
)

// MemoryStore keeps records in process memory. Records are stored as JSON so
// callers never share mutable state with the store.
type MemoryStore struct {
	mu      sync.Mutex
	orders  map[string][]byte
	jobs    map[string][]byte
	outputs map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:  make(map[string][]byte),
		jobs:    make(map[string][]byte),
		outputs: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) GetOrder(_ context.Context, orderID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.orders[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *MemoryStore) SaveOrder(_ context.Context, order *model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = data
	return nil
}

func (s *MemoryStore) PatchOrderCachedOutputs(_ context.Context, orderID string, outputs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return err
	}
	order.RenderedOutputs = outputs
	patched, err := json.Marshal(&order)
	if err != nil {
		return err
	}
	s.orders[orderID] = patched
	return nil
}

func (s *MemoryStore) GetRenderStatus(_ context.Context, orderID string) (*model.RenderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job(orderID)
}

func (s *MemoryStore) job(orderID string) (*model.RenderJob, error) {
	data, ok := s.jobs[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	var job model.RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *MemoryStore) UpsertRenderStatus(_ context.Context, job *model.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.OrderID] = data
	return nil
}

func (s *MemoryStore) DeleteRenderStatus(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, orderID)
	return nil
}

func (s *MemoryStore) ClaimRender(_ context.Context, orderID string, force bool, now time.Time) (*ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.job(orderID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	job, claimed := Claim(existing, orderID, force, now)
	if !claimed {
		return &ClaimResult{Job: job}, nil
	}

	removed, err := s.outputsLocked(orderID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	s.jobs[orderID] = data
	delete(s.outputs, orderID)

	return &ClaimResult{Job: job, Claimed: true, Removed: removed}, nil
}

func (s *MemoryStore) UpsertVariantOutput(_ context.Context, out *model.VariantOutput) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outputs[out.OrderID] == nil {
		s.outputs[out.OrderID] = make(map[string][]byte)
	}
	s.outputs[out.OrderID][out.VariantID] = data
	return nil
}

func (s *MemoryStore) ListVariantOutputs(_ context.Context, orderID string) ([]model.VariantOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outputsLocked(orderID)
}

func (s *MemoryStore) outputsLocked(orderID string) ([]model.VariantOutput, error) {
	var outs []model.VariantOutput
	for _, data := range s.outputs[orderID] {
		var out model.VariantOutput
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].VariantID < outs[j].VariantID })
	return outs, nil
}

func (s *MemoryStore) DeleteVariantOutputs(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outputs, orderID)
	return nil
}
