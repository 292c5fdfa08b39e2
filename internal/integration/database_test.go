package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"equipment-console/internal/config"
	"equipment-console/internal/database"
	"equipment-console/internal/model"
	"equipment-console/internal/repository"
	"equipment-console/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openJournal connects to TEST_JOURNAL_DSN and skips when it is unset or unreachable.
func openJournal(t *testing.T) repository.WorkflowRunRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database integration test in short mode")
	}
	dsn := os.Getenv("TEST_JOURNAL_DSN")
	if dsn == "" {
		t.Skip("TEST_JOURNAL_DSN not set")
	}

	db, err := database.InitDB(config.JournalConfig{
		DSN:             dsn,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		t.Skipf("journal database not available: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DROP TABLE IF EXISTS workflow_runs")
		db.Close()
	})

	repo := repository.NewWorkflowRunRepository(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.EnsureSchema(context.Background()), "schema creation must be idempotent")
	return repo
}

func TestIntegration_JournalRoundTrip(t *testing.T) {
	repo := openJournal(t)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	partial := &workflow.Outcome{
		RunID:     uuid.New(),
		Mode:      workflow.ModeCreate,
		Stage:     workflow.StageDone,
		Status:    workflow.StatusPartial,
		Equipment: &model.Equipment{ID: 77},
		Steps: []workflow.StepResult{
			{Step: workflow.StepEquipment, Status: workflow.StepSucceeded},
			{Step: workflow.StepOrgans, Status: workflow.StepFailed, Message: "organs failed"},
		},
		Notices:    []workflow.Notice{{Level: workflow.NoticeWarning, Step: workflow.StepOrgans, Message: "organs failed"}},
		StartedAt:  started,
		FinishedAt: started.Add(200 * time.Millisecond),
	}
	rejected := &workflow.Outcome{
		RunID:      uuid.New(),
		Mode:       workflow.ModeCreate,
		Stage:      workflow.StageAborted,
		Status:     workflow.StatusRejected,
		StartedAt:  started.Add(time.Second),
		FinishedAt: started.Add(time.Second),
	}

	require.NoError(t, repo.Record(ctx, partial))
	require.NoError(t, repo.Record(ctx, rejected))

	got, err := repo.GetByID(ctx, partial.RunID)
	require.NoError(t, err)
	assert.Equal(t, "partial", got.Status)
	assert.Equal(t, []string{"organs"}, got.FailedSteps)
	require.NotNil(t, got.EquipmentID)
	assert.EqualValues(t, 77, *got.EquipmentID)
	require.Len(t, got.Notices, 1)
	assert.Equal(t, workflow.StepOrgans, got.Notices[0].Step)

	page, err := repo.ListPaginated(ctx, repository.PaginationParams{Offset: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, rejected.RunID, page.Items[0].ID, "newest first")
	assert.Nil(t, page.Items[0].EquipmentID)

	byEquipment, err := repo.ListByEquipment(ctx, 77)
	require.NoError(t, err)
	require.Len(t, byEquipment, 1)
	assert.Equal(t, partial.RunID, byEquipment[0].ID)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrWorkflowRunNotFound)
}
