package storage

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/deciflow/deciflow/internal/domain"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore is the Postgres-backed FlowStore/TelemetryStore, built on the
// same bun/pgdialect/pgdriver stack and transactional-upsert style as the
// original workflow store.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(dsn string) *BunStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}
}

func (s *BunStore) InitSchema(ctx context.Context) error {
	models := []interface{}{
		(*FlowModel)(nil),
		(*SymbolicEventModel)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FlowModel persists an entire decision flow as one row: the node graph is
// small and always read/written whole, so it is stored as a single jsonb
// document rather than normalized into per-node rows.
type FlowModel struct {
	bun.BaseModel `bun:"table:decision_flows,alias:f"`

	ID          string         `bun:"id,pk"`
	Name        string         `bun:"name"`
	Description string         `bun:"description"`
	OwnerID     string         `bun:"owner_id"`
	Nodes       []domain.Node  `bun:"nodes,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at"`
	UpdatedAt   time.Time      `bun:"updated_at"`
}

func newFlowModel(f domain.Flow) *FlowModel {
	return &FlowModel{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		OwnerID:     f.OwnerID,
		Nodes:       f.Nodes,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (m *FlowModel) toDomain() domain.Flow {
	return domain.Flow{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		OwnerID:     m.OwnerID,
		Nodes:       m.Nodes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// SaveFlow upserts the flow document as a whole.
func (s *BunStore) SaveFlow(ctx context.Context, f domain.Flow) error {
	model := newFlowModel(f)
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Exec(ctx)
	return err
}

func (s *BunStore) GetFlow(ctx context.Context, id string) (domain.Flow, error) {
	model := new(FlowModel)
	err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Flow{}, domain.NewDomainError(domain.ErrCodeNotFound, "flow "+id+" not found", err)
		}
		return domain.Flow{}, err
	}
	return model.toDomain(), nil
}

func (s *BunStore) ListFlows(ctx context.Context, ownerID string) ([]domain.Flow, error) {
	var models []FlowModel
	q := s.db.NewSelect().Model(&models).Order("created_at DESC")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Flow, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

func (s *BunStore) DeleteFlow(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().Model((*FlowModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().Model((*SymbolicEventModel)(nil)).Where("flow_id = ?", id).Exec(ctx)
	return err
}

// SymbolicEventModel is one persisted SymbolicExecution summary.
type SymbolicEventModel struct {
	bun.BaseModel `bun:"table:symbolic_events,alias:se"`

	ID         string    `bun:"id,pk"`
	FlowID     string    `bun:"flow_id"`
	Timestamp  time.Time `bun:"timestamp"`
	Pruned     int       `bun:"pruned"`
	Reductions int       `bun:"reductions"`
	Uncovered  int       `bun:"uncovered"`
	Coverage   float64   `bun:"coverage"`
}

func newSymbolicEventModel(e domain.SymbolicExecution) *SymbolicEventModel {
	id := e.ID
	if id == "" {
		id = uuid.New().String()
	}
	return &SymbolicEventModel{
		ID:         id,
		FlowID:     e.FlowID,
		Timestamp:  e.Timestamp,
		Pruned:     e.Pruned,
		Reductions: e.Reductions,
		Uncovered:  e.Uncovered,
		Coverage:   e.Coverage,
	}
}

func (m *SymbolicEventModel) toDomain() domain.SymbolicExecution {
	return domain.SymbolicExecution{
		ID:         m.ID,
		FlowID:     m.FlowID,
		Timestamp:  m.Timestamp,
		Pruned:     m.Pruned,
		Reductions: m.Reductions,
		Uncovered:  m.Uncovered,
		Coverage:   m.Coverage,
	}
}

// windowSize mirrors telemetry.windowSize: the sliding window keeps only
// the latest two summaries per flow, discarding anything older.
const windowSize = 2

// AppendSymbolicExecution inserts exec, then trims the flow's history down
// to the latest windowSize rows inside one transaction — the sliding
// window is enforced in storage, not just in the in-memory telemetry
// computation. It returns the resulting window, oldest first.
func (s *BunStore) AppendSymbolicExecution(ctx context.Context, exec domain.SymbolicExecution) ([]domain.SymbolicExecution, error) {
	var window []domain.SymbolicExecution
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		model := newSymbolicEventModel(exec)
		if _, err := tx.NewInsert().Model(model).Exec(ctx); err != nil {
			return err
		}

		var all []SymbolicEventModel
		if err := tx.NewSelect().Model(&all).
			Where("flow_id = ?", exec.FlowID).
			Order("timestamp DESC").
			Scan(ctx); err != nil {
			return err
		}

		if len(all) > windowSize {
			stale := all[windowSize:]
			ids := make([]string, len(stale))
			for i, m := range stale {
				ids[i] = m.ID
			}
			if _, err := tx.NewDelete().Model((*SymbolicEventModel)(nil)).
				Where("id IN (?)", bun.In(ids)).Exec(ctx); err != nil {
				return err
			}
			all = all[:windowSize]
		}

		sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
		window = make([]domain.SymbolicExecution, len(all))
		for i, m := range all {
			window[i] = m.toDomain()
		}
		return nil
	})
	return window, err
}

func (s *BunStore) GetWindow(ctx context.Context, flowID string) ([]domain.SymbolicExecution, error) {
	var models []SymbolicEventModel
	err := s.db.NewSelect().Model(&models).
		Where("flow_id = ?", flowID).
		Order("timestamp DESC").
		Limit(windowSize).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Timestamp.Before(models[j].Timestamp) })
	out := make([]domain.SymbolicExecution, len(models))
	for i, m := range models {
		out[i] = m.toDomain()
	}
	return out, nil
}

// Ping checks if the storage is accessible.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the storage connection.
func (s *BunStore) Close() error {
	return s.db.Close()
}
