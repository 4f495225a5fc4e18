package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEquityCurveRepoOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewEquityCurveRepo(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// 乱序写入，读取必须按观测时间正序
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", base.Add(2*time.Minute), 100_020, -0.001)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", base, 100_000, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", base.Add(time.Minute), 100_010, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-2", base.Add(3*time.Minute), 99_000, -0.01)))

	points, err := repo.FindByRunOrdered(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, points, 3)
	for i := 1; i < len(points); i++ {
		assert.False(t, points[i].Ts.Before(points[i-1].Ts))
	}

	count, err := repo.CountByRun(ctx, "run-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestEquityCurveRepoFindLatest(t *testing.T) {
	db := newTestDB(t)
	repo := NewEquityCurveRepo(db)
	ctx := context.Background()

	_, err := repo.FindLatest(ctx)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", base, 100_000, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", base.Add(time.Hour), 100_500, 0)))

	latest, err := repo.FindLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100_500.0, latest.Equity)
}

func TestEquityCurveRepoFindByRunAndRange(t *testing.T) {
	db := newTestDB(t)
	repo := NewEquityCurveRepo(db)
	ctx := context.Background()

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", day.Add(-time.Second), 99_000, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", day, 100_000, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", day.Add(23*time.Hour), 100_100, 0)))
	require.NoError(t, repo.Create(ctx, newEquityPoint("run-1", day.Add(24*time.Hour), 100_200, 0)))

	// 窗口为左闭右开
	points, err := repo.FindByRunAndRange(ctx, "run-1", day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 100_000.0, points[0].Equity)
	assert.Equal(t, 100_100.0, points[1].Equity)
}
