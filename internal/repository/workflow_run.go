package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"equipment-console/internal/workflow"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrWorkflowRunNotFound = errors.New("workflow run not found")

// PaginationParams holds pagination parameters for repository queries
type PaginationParams struct {
	Offset int
	Limit  int
}

// PaginatedResult holds paginated query results
type PaginatedResult struct {
	Items      []WorkflowRun
	TotalCount int
}

// WorkflowRun is the journal entry of one equipment submission.
type WorkflowRun struct {
	ID          uuid.UUID         `json:"id"`
	Mode        string            `json:"mode"`
	EquipmentID *int64            `json:"equipment_id,omitempty"`
	Stage       string            `json:"stage"`
	Status      string            `json:"status"`
	FailedSteps []string          `json:"failed_steps"`
	Notices     []workflow.Notice `json:"notices"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// NewWorkflowRun flattens a submission outcome into a journal entry.
func NewWorkflowRun(out *workflow.Outcome) WorkflowRun {
	run := WorkflowRun{
		ID:          out.RunID,
		Mode:        string(out.Mode),
		Stage:       string(out.Stage),
		Status:      string(out.Status),
		FailedSteps: []string{},
		Notices:     out.Notices,
		StartedAt:   out.StartedAt,
		FinishedAt:  out.FinishedAt,
	}
	if id := out.EquipmentID(); id != 0 {
		run.EquipmentID = &id
	}
	for _, s := range out.FailedSteps() {
		run.FailedSteps = append(run.FailedSteps, string(s))
	}
	if run.Notices == nil {
		run.Notices = []workflow.Notice{}
	}
	return run
}

// WorkflowRunRepository stores the history of equipment submissions.
type WorkflowRunRepository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, out *workflow.Outcome) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkflowRun, error)
	ListPaginated(ctx context.Context, params PaginationParams) (*PaginatedResult, error)
	ListByEquipment(ctx context.Context, equipmentID int64) ([]WorkflowRun, error)
}

type workflowRunRepository struct {
	DB *sql.DB
}

// NewWorkflowRunRepository creates a new WorkflowRunRepository.
func NewWorkflowRunRepository(db *sql.DB) WorkflowRunRepository {
	return &workflowRunRepository{DB: db}
}

const workflowRunColumns = `id, mode, equipment_id, stage, status, failed_steps, notices, started_at, finished_at`

// EnsureSchema creates the journal table when it does not exist yet.
func (r *workflowRunRepository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		CREATE TABLE IF NOT EXISTS workflow_runs (
			id UUID PRIMARY KEY,
			mode TEXT NOT NULL,
			equipment_id BIGINT,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			failed_steps TEXT[] NOT NULL DEFAULT '{}',
			notices JSONB NOT NULL DEFAULT '[]',
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		)`

	if _, err := r.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create workflow_runs table: %w", err)
	}
	return nil
}

// Record inserts the journal entry of a finished submission.
func (r *workflowRunRepository) Record(ctx context.Context, out *workflow.Outcome) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	run := NewWorkflowRun(out)
	notices, err := json.Marshal(run.Notices)
	if err != nil {
		return fmt.Errorf("failed to encode notices: %w", err)
	}

	query := `
		INSERT INTO workflow_runs (id, mode, equipment_id, stage, status, failed_steps, notices, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.DB.ExecContext(ctx, query,
		run.ID,
		run.Mode,
		nullInt64(run.EquipmentID),
		run.Stage,
		run.Status,
		pq.Array(run.FailedSteps),
		notices,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record workflow run: %w", err)
	}
	return nil
}

// GetByID retrieves one journal entry.
func (r *workflowRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowRun, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + workflowRunColumns + ` FROM workflow_runs WHERE id = $1`

	run, err := scanWorkflowRun(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowRunNotFound
		}
		return nil, fmt.Errorf("failed to get workflow run: %w", err)
	}
	return run, nil
}

// ListPaginated returns journal entries, newest first.
func (r *workflowRunRepository) ListPaginated(ctx context.Context, params PaginationParams) (*PaginatedResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		SELECT ` + workflowRunColumns + `
		FROM workflow_runs
		ORDER BY started_at DESC
		OFFSET $1 LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, params.Offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow runs: %w", err)
	}
	defer rows.Close()

	runs, err := scanWorkflowRuns(rows)
	if err != nil {
		return nil, err
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM workflow_runs`).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of workflow runs: %w", err)
	}

	return &PaginatedResult{Items: runs, TotalCount: totalCount}, nil
}

// ListByEquipment returns the submissions that touched one equipment, newest first.
func (r *workflowRunRepository) ListByEquipment(ctx context.Context, equipmentID int64) ([]WorkflowRun, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := `
		SELECT ` + workflowRunColumns + `
		FROM workflow_runs
		WHERE equipment_id = $1
		ORDER BY started_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow runs: %w", err)
	}
	defer rows.Close()

	return scanWorkflowRuns(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkflowRun(row rowScanner) (*WorkflowRun, error) {
	var (
		run         WorkflowRun
		equipmentID sql.NullInt64
		notices     []byte
	)
	if err := row.Scan(&run.ID, &run.Mode, &equipmentID, &run.Stage, &run.Status,
		pq.Array(&run.FailedSteps), &notices, &run.StartedAt, &run.FinishedAt); err != nil {
		return nil, err
	}
	if equipmentID.Valid {
		id := equipmentID.Int64
		run.EquipmentID = &id
	}
	if len(notices) > 0 {
		if err := json.Unmarshal(notices, &run.Notices); err != nil {
			return nil, fmt.Errorf("failed to decode notices: %w", err)
		}
	}
	if run.FailedSteps == nil {
		run.FailedSteps = []string{}
	}
	return &run, nil
}

func scanWorkflowRuns(rows *sql.Rows) ([]WorkflowRun, error) {
	runs := []WorkflowRun{}
	for rows.Next() {
		run, err := scanWorkflowRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
