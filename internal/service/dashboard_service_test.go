package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dushixiang/tdi/internal/repo"
)

func TestDashboardSummaryEmptyStore(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db, zap.NewNop())

	summary, err := svc.Summary(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, "run-1", summary.RunID)
	assert.EqualValues(t, 0, summary.TradesCount)
	assert.Zero(t, summary.LatestEquity)
	assert.Zero(t, summary.LatestDrawdown)
	assert.Nil(t, summary.LastTs)
}

func TestDashboardSummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db, zap.NewNop())
	equityRepo := repo.NewEquityCurveRepo(db)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedPoint(t, equityRepo, "run-1", base, 100_000, 0)
	seedPoint(t, equityRepo, "run-1", base.Add(time.Minute), 99_500, -0.005)

	summary, err := svc.Summary(context.Background(), "run-1")
	require.NoError(t, err)

	assert.Equal(t, 99_500.0, summary.LatestEquity)
	assert.Equal(t, -0.005, summary.LatestDrawdown)
	require.NotNil(t, summary.LastTs)
	assert.True(t, summary.LastTs.Equal(base.Add(time.Minute)))
}
