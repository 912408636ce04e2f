package storage

import (
	"context"

	"github.com/deciflow/deciflow/internal/domain"
)

// FlowStore persists decision flows.
type FlowStore interface {
	SaveFlow(ctx context.Context, f domain.Flow) error
	GetFlow(ctx context.Context, id string) (domain.Flow, error)
	ListFlows(ctx context.Context, ownerID string) ([]domain.Flow, error)
	DeleteFlow(ctx context.Context, id string) error
}

// TelemetryStore persists the sliding window of symbolic-execution
// summaries telemetry derives the evolution index from.
type TelemetryStore interface {
	AppendSymbolicExecution(ctx context.Context, exec domain.SymbolicExecution) ([]domain.SymbolicExecution, error)
	GetWindow(ctx context.Context, flowID string) ([]domain.SymbolicExecution, error)
}

// Store is the full storage surface a flow/telemetry service depends on.
type Store interface {
	FlowStore
	TelemetryStore
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*BunStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
