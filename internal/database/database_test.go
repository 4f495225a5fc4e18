package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dushixiang/tdi/internal/config"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		dbURL   string
		want    string
		wantErr bool
	}{
		{name: "default url", dbURL: config.DefaultDBURL, want: "tdi_bot.db"},
		{name: "sqlite prefix", dbURL: "sqlite:///data/bot.db", want: "data/bot.db"},
		{name: "sqlite relative", dbURL: "sqlite:///./custom.db", want: "./custom.db"},
		{name: "postgres rejected", dbURL: "postgres://localhost/tdi", wantErr: true},
		{name: "empty rejected", dbURL: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.dbURL)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedDBURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "bot.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.FileExists(t, path)
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	db, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	for _, table := range []string{"trades", "equity_curve", "metrics_daily"} {
		assert.True(t, db.Migrator().HasTable(table), "table %s should exist", table)
	}
}

func TestOpenFromURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	db, err := OpenFromURL("sqlite:///" + path)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("equity_curve"))

	_, err = OpenFromURL("mysql://localhost/tdi")
	require.ErrorIs(t, err, ErrUnsupportedDBURL)
}
