package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sshcollectorpro/consoleprov/internal/config"
	"github.com/sshcollectorpro/consoleprov/internal/model"
	"github.com/sshcollectorpro/consoleprov/internal/service"
)

func openTestDB(t *testing.T) *Repository {
	t.Helper()
	require.NoError(t, InitSQLite(config.SQLiteConfig{
		Path:     filepath.Join(t.TempDir(), "provision.db"),
		LogLevel: "silent",
	}))
	t.Cleanup(func() { _ = Close() })
	require.NoError(t, Health())
	return NewRepository(nil)
}

func TestRepositoryRunLifecycle(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	start := time.Now()

	require.NoError(t, repo.StartRun(ctx, &model.ProvisionRun{
		ID: "run-1", RecordsPath: "Data.csv", Total: 2, Status: model.RunStatusRunning, StartTime: start,
	}))

	rec := model.DeviceRecord{Port: "/dev/ttyUSB0", Hostname: "RFTX1", Serial: "FTX1", Secret: "s3cret"}
	require.NoError(t, repo.RecordOutcome(ctx, "run-1", 2, model.Outcome{
		Record: rec, Status: model.StatusSkippedMismatch, ExtractedSerial: "FTX9", Reason: "serial mismatch",
		StartedAt: start, FinishedAt: start.Add(1500 * time.Millisecond),
	}))
	require.NoError(t, repo.RecordOutcome(ctx, "run-1", 1, model.Outcome{
		Record: rec, Status: model.StatusConfigured, ExtractedSerial: "FTX1", CommandsSent: 14,
	}))

	require.NoError(t, repo.FinishRun(ctx, "run-1", service.BatchResult{
		RunID:      "run-1",
		Configured: []model.DeviceRecord{rec},
		Skipped:    []model.DeviceRecord{rec},
		Aborted:    true,
		FinishedAt: start.Add(time.Minute),
	}))

	run, err := repo.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusAborted, run.Status)
	assert.Equal(t, 1, run.Configured)
	assert.Equal(t, 1, run.Skipped)

	rows, err := repo.ListOutcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Seq)
	assert.Equal(t, 14, rows[0].CommandsSent)
	assert.Equal(t, string(model.StatusSkippedMismatch), rows[1].Status)
	assert.Equal(t, int64(1500), rows[1].Duration)
	assert.Equal(t, "FTX1", rows[1].ExpectedSerial)

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	_, err = repo.GetRun(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryStatusRecords(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, &model.StatusRecord{Port: "COM3", Serial: "FTX1", Interfaces: "Gi0/0:up/up"}))
	require.NoError(t, repo.Append(ctx, &model.StatusRecord{Port: "COM3", Serial: "FOC2", Interfaces: "Fa0/1:down/down"}))

	all, err := repo.ListStatusRecords(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "FOC2", all[0].Serial)

	one, err := repo.ListStatusRecords(ctx, "FTX1", 10)
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, "Gi0/0:up/up", one[0].Interfaces)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogLevel("warn"), gormLogLevel(""))
	assert.NotEqual(t, gormLogLevel("silent"), gormLogLevel("info"))
}
