package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRecordAndRecent(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := repo.Record(ctx, Run{
			StartedAt:       base.Add(time.Duration(i) * time.Hour),
			Documents:       2,
			Blocks:          10 + i,
			Employees:       5,
			NetPayableTotal: decimal.RequireFromString("12345.67"),
		})
		require.NoError(t, err)
	}

	runs, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, 12, runs[0].Blocks)
	assert.Equal(t, 11, runs[1].Blocks)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[0].NetPayableTotal.Equal(decimal.RequireFromString("12345.67")))
}

func TestRecordAssignsID(t *testing.T) {
	repo := openTestRepo(t)

	id, err := repo.Record(context.Background(), Run{NetPayableTotal: decimal.Zero})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	runs, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.False(t, runs[0].StartedAt.IsZero())
}

func TestRecentEmpty(t *testing.T) {
	repo := openTestRepo(t)

	runs, err := repo.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
