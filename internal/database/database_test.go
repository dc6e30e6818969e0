package database

import (
	"context"
	"regexp"
	"testing"

	"tether/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool_DefaultsWhenUnset(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestBuildDSN_DefaultsSSLMode(t *testing.T) {
	dsn := buildDSN("db", "5432", "u", "p", "tether", "")
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tether sslmode=disable", dsn)
}

func TestOpen_AutoMigrateCreatesSchema(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{
		"users", "relationships", "terms", "term_agreements", "term_violations",
		"milestones", "milestone_criteria", "milestone_evidence", "milestone_participants",
		"activities", "activity_reactions", "activity_comments",
		"certificates", "certificate_recipients", "notifications",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.Migrator().HasIndex("relationships", "idx_relationship_pair"))
	assert.True(t, db.Migrator().HasIndex("term_agreements", "idx_term_agreement_user"))
}

func TestGetReadDB_FallsBackToPrimary(t *testing.T) {
	primary, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	prevDB, prevRead := DB, ReadDB
	t.Cleanup(func() { DB, ReadDB = prevDB, prevRead })

	DB, ReadDB = primary, nil
	assert.Same(t, primary, GetReadDB())
}

func TestMigrationStore_ApplyMigrationIsTransactional(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	store := NewMigrationStore(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE relationships ADD CONSTRAINT x CHECK (true)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "migration_logs"`)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = store.ApplyMigration(context.Background(), 2, "relationship_checks", "ALTER TABLE relationships ADD CONSTRAINT x CHECK (true)")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationStore_ApplyMigrationRollsBackOnFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("BROKEN").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewMigrationStore(db).ApplyMigration(context.Background(), 9, "broken", "BROKEN")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply migration 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}
