package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"equipment-console/internal/model"
	"equipment-console/internal/workflow"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t testing.TB) (*sql.DB, sqlmock.Sqlmock, WorkflowRunRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewWorkflowRunRepository(db)
	return db, mock, repo
}

func partialOutcome() *workflow.Outcome {
	started := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	return &workflow.Outcome{
		RunID:     uuid.MustParse("6f1c2c9e-7d4b-4d1a-9f59-0a3d1f0b9e11"),
		Mode:      workflow.ModeCreate,
		Stage:     workflow.StageDone,
		Status:    workflow.StatusPartial,
		Equipment: &model.Equipment{ID: 501},
		Steps: []workflow.StepResult{
			{Step: workflow.StepEquipment, Status: workflow.StepSucceeded},
			{Step: workflow.StepCharacteristics, Status: workflow.StepFailed},
		},
		Notices: []workflow.Notice{
			{Level: workflow.NoticeWarning, Step: workflow.StepCharacteristics, Message: "characteristics failed"},
		},
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
	}
}

func runColumns() []string {
	return []string{"id", "mode", "equipment_id", "stage", "status", "failed_steps", "notices", "started_at", "finished_at"}
}

func TestNewWorkflowRun(t *testing.T) {
	run := NewWorkflowRun(partialOutcome())

	require.NotNil(t, run.EquipmentID)
	assert.Equal(t, int64(501), *run.EquipmentID)
	assert.Equal(t, []string{"characteristics"}, run.FailedSteps)
	assert.Equal(t, "partial", run.Status)

	rejected := NewWorkflowRun(&workflow.Outcome{Status: workflow.StatusRejected})
	assert.Nil(t, rejected.EquipmentID)
	assert.NotNil(t, rejected.FailedSteps)
	assert.NotNil(t, rejected.Notices)
}

func TestEnsureSchema(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS workflow_runs`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Success(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()
	out := partialOutcome()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO workflow_runs (id, mode, equipment_id, stage, status, failed_steps, notices, started_at, finished_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)).
		WithArgs(out.RunID, "create", int64(501), "done", "partial",
			pq.Array([]string{"characteristics"}), sqlmock.AnyArg(), out.StartedAt, out.FinishedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), out)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_RejectedHasNoEquipment(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()
	out := &workflow.Outcome{RunID: uuid.New(), Mode: workflow.ModeCreate, Stage: workflow.StageAborted, Status: workflow.StatusRejected}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO workflow_runs`)).
		WithArgs(out.RunID, "create", nil, "aborted", "rejected",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Record(context.Background(), out))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_DatabaseError(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO workflow_runs`)).
		WillReturnError(errors.New("connection refused"))

	err := repo.Record(context.Background(), partialOutcome())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record workflow run")
}

func TestGetByID(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()
	out := partialOutcome()

	rows := sqlmock.NewRows(runColumns()).
		AddRow(out.RunID.String(), "create", int64(501), "done", "partial", "{characteristics}",
			[]byte(`[{"level":"warning","step":"characteristics","message":"characteristics failed"}]`),
			out.StartedAt, out.FinishedAt)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, mode, equipment_id, stage, status, failed_steps, notices, started_at, finished_at FROM workflow_runs WHERE id = $1`)).
		WithArgs(out.RunID).
		WillReturnRows(rows)

	run, err := repo.GetByID(context.Background(), out.RunID)

	require.NoError(t, err)
	assert.Equal(t, out.RunID, run.ID)
	require.NotNil(t, run.EquipmentID)
	assert.Equal(t, int64(501), *run.EquipmentID)
	assert.Equal(t, []string{"characteristics"}, run.FailedSteps)
	require.Len(t, run.Notices, 1)
	assert.Equal(t, workflow.NoticeWarning, run.Notices[0].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM workflow_runs WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	run, err := repo.GetByID(context.Background(), id)

	assert.Nil(t, run)
	assert.True(t, errors.Is(err, ErrWorkflowRunNotFound))
}

func TestListPaginated(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()
	now := time.Now().UTC()

	rows := sqlmock.NewRows(runColumns()).
		AddRow(uuid.New().String(), "create", int64(1), "done", "succeeded", "{}", []byte(`[]`), now, now).
		AddRow(uuid.New().String(), "update", nil, "aborted", "failed", "{}", []byte(`[]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM workflow_runs ORDER BY started_at DESC OFFSET $1 LIMIT $2`)).
		WithArgs(0, 10).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM workflow_runs`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	result, err := repo.ListPaginated(context.Background(), PaginationParams{Offset: 0, Limit: 10})

	require.NoError(t, err)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, 12, result.TotalCount)
	assert.Nil(t, result.Items[1].EquipmentID)
	assert.Empty(t, result.Items[1].FailedSteps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByEquipment(t *testing.T) {
	db, mock, repo := setupTestDB(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE equipment_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(runColumns()))

	runs, err := repo.ListByEquipment(context.Background(), 7)

	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
