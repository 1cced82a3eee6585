//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresSettingsOperations(t *testing.T) {
	ctx := context.Background()

	// PostgreSQL logs "ready to accept connections" once during bootstrap and
	// once when fully up.
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("emudecky_test"),
		postgres.WithUsername("emudecky_test"),
		postgres.WithPassword("emudecky_test"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	s, err := New(&Config{
		Type: DatabaseTypePostgres,
		Postgres: PostgresConfig{
			Host:     host,
			Port:     port.Int(),
			Database: "emudecky_test",
			User:     "emudecky_test",
			Password: "emudecky_test",
		},
	})
	if err != nil {
		t.Fatalf("failed to create postgres store: %v", err)
	}
	defer s.Close()

	if s.Type() != DatabaseTypePostgres {
		t.Fatalf("expected postgres store, got %s", s.Type())
	}

	runSettingsSuite(t, s)
}
