//go:build integration

package sqlstore

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/factshield/factshield/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStorage(t *testing.T) {
	ctx := context.Background()
	dbName := "factshield"
	dbUser := "user"
	dbPassword := "password"

	container, err := postgres.Run(ctx,
		"postgres:15.3-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			// The server restarts once after init, so wait for the second
			// readiness line.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	cfg := &config.Config{Public: config.DefaultPublic()}
	cfg.Public.Database = config.Database{
		Driver:  config.DriverPostgres,
		Host:    host,
		Port:    port,
		User:    dbUser,
		Dbname:  dbName,
		SSLMode: "disable",
	}
	cfg.Private.DatabasePassword = dbPassword

	s, err := Open(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStorageSuite(t, s)
}
