package audit

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/composekit/config"
	"github.com/BaSui01/composekit/types"
)

func setupGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接独立，限制为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := NewGormStore(db, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestGormStore_SaveAndList(t *testing.T) {
	store := setupGormStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, Record{
		RunID: "run-1", Attempt: 1, Provider: "mock", Prompt: "p", Raw: "no json",
		Outcome: OutcomeInvalid,
		Issues:  []types.Issue{{Message: "no JSON found in response"}},
		CreatedAt: base,
	}))
	require.NoError(t, store.Save(ctx, Record{
		RunID: "run-1", Attempt: 2, Provider: "mock", Raw: "{}",
		Outcome: OutcomeSuccess, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, store.Save(ctx, Record{RunID: "run-2", Attempt: 1}))

	records, err := store.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Attempt)
	assert.Equal(t, OutcomeInvalid, records[0].Outcome)
	require.Len(t, records[0].Issues, 1)
	assert.Equal(t, "no JSON found in response", records[0].Issues[0].Message)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, 2, records[1].Attempt)
}

func TestGormStore_ListEmpty(t *testing.T) {
	store := setupGormStore(t)
	records, err := store.List(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOpenGormStore(t *testing.T) {
	store, err := OpenGormStore(config.DatabaseConfig{Driver: "sqlite", Name: ":memory:", MaxOpenConns: 1}, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(context.Background(), Record{RunID: "r", Attempt: 1}))
	records, err := store.List(context.Background(), "r")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestOpenGormStore_BadDriver(t *testing.T) {
	_, err := OpenGormStore(config.DatabaseConfig{Driver: "nope"}, nil)
	assert.Error(t, err)
}
