package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(id string, started time.Time) *domain.RunReport {
	return &domain.RunReport{
		ID:         id,
		Requested:  []string{"deploy"},
		StartedAt:  started,
		FinishedAt: started.Add(1500 * time.Millisecond),
		Success:    false,
		Tasks: []domain.TaskResult{
			{Task: "build", Fullname: "app.build", Independent: true, Status: domain.StatusCompleted, Duration: time.Second},
			{Task: "deploy", Fullname: "app.deploy", Status: domain.StatusFailed, Error: `task requires parameter "deploy.target"`},
		},
	}
}

// RunHistoryStoreContract verifies that a HistoryStore implementation
// adheres to the interface contract. The store must start empty.
func RunHistoryStoreContract(t *testing.T, store ports.HistoryStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		report := sampleReport("run-save", base)
		require.NoError(t, store.Save(ctx, report), "Save should not return error")

		loaded, err := store.Load(ctx, "run-save")
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.Requested, loaded.Requested)
		assert.True(t, report.StartedAt.Equal(loaded.StartedAt))
		assert.False(t, loaded.Success)
		require.Len(t, loaded.Tasks, 2)
		assert.Equal(t, domain.StatusFailed, loaded.Tasks[1].Status)
		assert.Equal(t, time.Second, loaded.Tasks[0].Duration)
		assert.Equal(t, 1, loaded.Count(domain.StatusCompleted))

		require.NoError(t, store.Delete(ctx, "run-save"))
	})

	t.Run("Loaded reports are copies", func(t *testing.T) {
		report := sampleReport("run-copy", base)
		require.NoError(t, store.Save(ctx, report))
		report.Tasks[0].Status = domain.StatusSkipped

		loaded, err := store.Load(ctx, "run-copy")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, loaded.Tasks[0].Status)

		require.NoError(t, store.Delete(ctx, "run-copy"))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "missing-run")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleReport("run-delete", base)))
		require.NoError(t, store.Delete(ctx, "run-delete"), "Delete should not return error")

		_, err := store.Load(ctx, "run-delete")
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
		assert.NoError(t, store.Delete(ctx, "run-delete"), "deleting twice is not an error")
	})

	t.Run("List is ordered by start time", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sampleReport("run-late", base.Add(time.Hour))))
		require.NoError(t, store.Save(ctx, sampleReport("run-early", base)))
		defer func() {
			_ = store.Delete(ctx, "run-late")
			_ = store.Delete(ctx, "run-early")
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"run-early", "run-late"}, ids)
	})
}
