package persistence

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mutooni/mutooni-api/internal/config"
)

func TestMigrationNamesAreOrdered(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_users.sql", "0002_catalog.sql", "0003_purchases.sql"}, names)
}

func TestUsersMigrationDeclaresSubjectConstraint(t *testing.T) {
	content, err := fs.ReadFile(migrationFiles, "migrations/0001_users.sql")
	require.NoError(t, err)
	// the repository maps violations of this constraint name to ErrSubjectTaken
	assert.True(t, strings.Contains(string(content), "CONSTRAINT users_subject_key UNIQUE (subject)"))
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, "test", zap.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, pg)
	assert.ErrorIs(t, pg.Ping(context.Background()), ErrNotConfigured)
}

func TestNewRedisPing(t *testing.T) {
	server := miniredis.RunT(t)
	r := NewRedis(context.Background(), config.RedisConfig{Addr: server.Addr(), PoolSize: 2}, zap.NewNop())
	defer r.Close()
	require.NoError(t, r.Ping(context.Background()))

	server.Close()
	assert.Error(t, r.Ping(context.Background()))
}
