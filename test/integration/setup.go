package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	handler "github.com/chatmandu/elections/internal/adapters/handler/http"
	pgrepo "github.com/chatmandu/elections/internal/adapters/repository/postgres"
	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/services"
)

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

type testApp struct {
	DB        *sql.DB
	Server    *httptest.Server
	Client    *http.Client
	container testcontainers.Container
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()

	container, connStr, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, applyMigrations(db))

	canEnd := func(userID string, election *domain.Election) bool {
		return election.CreatorID == userID || userID == "admin"
	}

	electionRepo := pgrepo.NewElectionRepository(db)
	voteRepo := pgrepo.NewVoteRepository(db)
	service := services.NewElectionService(electionRepo, voteRepo, canEnd, nil, zap.NewNop())

	electionHandler := handler.NewElectionHandler(service)
	voteHandler := handler.NewVoteHandler(service)
	server := httptest.NewServer(handler.NewHandler(electionHandler, voteHandler))

	return &testApp{
		DB:        db,
		Server:    server,
		Client:    server.Client(),
		container: container,
	}
}

func (a *testApp) Teardown(t *testing.T) {
	t.Helper()
	a.Server.Close()
	a.DB.Close()
	if err := a.container.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}
