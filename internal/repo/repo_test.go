package repo

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dushixiang/tdi/internal/database"
	"github.com/dushixiang/tdi/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newEquityPoint(runID string, ts time.Time, equity, dd float64) *models.EquityPoint {
	return &models.EquityPoint{
		ID:       ulid.Make().String(),
		Ts:       ts,
		Equity:   equity,
		Drawdown: dd,
		RunID:    runID,
	}
}

func ptr[T any](v T) *T {
	return &v
}
