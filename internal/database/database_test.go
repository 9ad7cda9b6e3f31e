package database

import (
	"context"
	"testing"

	"postboard/internal/config"
	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBDriver:                 "postgres",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, configurePool(db, &config.Config{DBDriver: "sqlite"}))
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestEmbeddedMigrationsAreOrderedAndPaired(t *testing.T) {
	ms := GetMigrations()
	require.NotEmpty(t, ms)
	for i, m := range ms {
		assert.NotEmpty(t, m.UpScript, m.String())
		assert.NotEmpty(t, m.DownScript, m.String())
		if i > 0 {
			assert.Greater(t, m.Version, ms[i-1].Version)
		}
	}
	assert.Equal(t, "000001_init", ms[0].String())
	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name            string
		cfg             config.Config
		runSQL, runAuto bool
		wantErr         bool
	}{
		{"hybrid dev", config.Config{DBDriver: "postgres", DBSchemaMode: "hybrid", Env: "development"}, true, true, false},
		{"hybrid prod", config.Config{DBDriver: "postgres", DBSchemaMode: "hybrid", Env: "production"}, true, false, false},
		{"sql", config.Config{DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"auto dev", config.Config{DBDriver: "postgres", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod refused", config.Config{DBDriver: "postgres", DBSchemaMode: "auto", Env: "prod"}, false, false, true},
		{"empty defaults to hybrid", config.Config{DBDriver: "postgres"}, true, true, false},
		{"sqlite always automigrates", config.Config{DBDriver: "sqlite", DBSchemaMode: "sql"}, false, true, false},
		{"unknown", config.Config{DBDriver: "postgres", DBSchemaMode: "nope"}, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}

func TestApplySchema_SQLiteCreatesTables(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{DBDriver: "sqlite", DBSchemaMode: "hybrid", Env: "test"}

	require.NoError(t, ApplySchema(context.Background(), db, cfg))

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T table missing", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Like{}, "idx_likes_user_post"))
}

func TestMigrationStore_MissingTableMeansNothingApplied(t *testing.T) {
	db := openSQLite(t)
	applied, err := NewMigrationStore(db).GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestMigrationStore_RecordAndRemove(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, db.AutoMigrate(&MigrationLog{}))

	store := NewMigrationStore(db)
	require.NoError(t, store.ApplyMigration(ctx, 1, "init", "CREATE TABLE t (id INTEGER)"))
	applied, err := store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, applied)

	require.NoError(t, store.RemoveMigration(ctx, 1))
	applied, err = store.GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

func TestGetSchemaStatus_ReportsPending(t *testing.T) {
	db := openSQLite(t)
	cfg := &config.Config{DBDriver: "postgres", DBSchemaMode: "sql"}

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.True(t, status.WillRunSQL)
	assert.Len(t, status.PendingMigrations, len(GetMigrations()))
}
