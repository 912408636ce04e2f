package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/deciflow/deciflow/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore is an in-process FlowStore/TelemetryStore implementation,
// used by tests and local development in place of BunStore.
type MemoryStore struct {
	mu    sync.RWMutex
	flows map[string]domain.Flow
	// events holds each flow's symbolic-execution history, oldest first,
	// already trimmed to windowSize.
	events map[string][]domain.SymbolicExecution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flows:  make(map[string]domain.Flow),
		events: make(map[string][]domain.SymbolicExecution),
	}
}

func (s *MemoryStore) SaveFlow(ctx context.Context, f domain.Flow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[f.ID] = f
	return nil
}

func (s *MemoryStore) GetFlow(ctx context.Context, id string) (domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flows[id]
	if !ok {
		return domain.Flow{}, domain.NewDomainError(domain.ErrCodeNotFound, fmt.Sprintf("flow %s not found", id), nil)
	}
	return f, nil
}

func (s *MemoryStore) ListFlows(ctx context.Context, ownerID string) ([]domain.Flow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Flow, 0, len(s.flows))
	for _, f := range s.flows {
		if ownerID == "" || f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) DeleteFlow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, id)
	delete(s.events, id)
	return nil
}

// windowSize mirrors telemetry.windowSize: only the latest two summaries
// per flow are retained.
const windowSize = 2

// AppendSymbolicExecution stores exec and trims the flow's history down to
// the latest windowSize entries, returning the resulting window oldest
// first.
func (s *MemoryStore) AppendSymbolicExecution(ctx context.Context, exec domain.SymbolicExecution) ([]domain.SymbolicExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}

	window := append(s.events[exec.FlowID], exec)
	if len(window) > windowSize {
		window = window[len(window)-windowSize:]
	}
	s.events[exec.FlowID] = window

	out := make([]domain.SymbolicExecution, len(window))
	copy(out, window)
	return out, nil
}

func (s *MemoryStore) GetWindow(ctx context.Context, flowID string) ([]domain.SymbolicExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := s.events[flowID]
	out := make([]domain.SymbolicExecution, len(window))
	copy(out, window)
	return out, nil
}

// Ping always succeeds: there is no external dependency to check.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
