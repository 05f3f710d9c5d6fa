package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/adapters/handler/http"
	"github.com/chatmandu/elections/internal/adapters/notifier/webhook"
	"github.com/chatmandu/elections/internal/adapters/repository/jsonfile"
	"github.com/chatmandu/elections/internal/adapters/repository/postgres"
	"github.com/chatmandu/elections/internal/core/domain"
	"github.com/chatmandu/elections/internal/core/ports"
	"github.com/chatmandu/elections/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var addr, backend, dataFile, webhookURL string
	var sweepInterval time.Duration

	flag.StringVar(&addr, "addr", envOr("LISTEN_ADDR", "0.0.0.0:8080"), "Listen address")
	flag.StringVar(&backend, "store", envOr("STORE_BACKEND", "jsonfile"), "Store backend (jsonfile or postgres)")
	flag.StringVar(&dataFile, "data-file", envOr("DATA_FILE", "./data/election_data.json"), "Election data file (jsonfile backend)")
	flag.StringVar(&webhookURL, "results-webhook", os.Getenv("RESULTS_WEBHOOK_URL"), "URL to receive ended-election results")
	flag.DurationVar(&sweepInterval, "sweep-interval", services.DefaultSweepInterval, "Expired-election sweep interval")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	electionRepo, voteRepo, err := buildStore(backend, dataFile, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}

	admins := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	canEnd := func(userID string, election *domain.Election) bool {
		if election.CreatorID == userID {
			return true
		}
		_, ok := admins[userID]
		return ok
	}

	electionService := services.NewElectionService(electionRepo, voteRepo, canEnd, nil, logger)

	var notifier ports.ResultNotifier
	if webhookURL != "" {
		notifier = webhook.NewNotifier(webhookURL)
	}
	monitor := services.NewMonitorService(electionService, notifier, sweepInterval, logger)

	electionHandler := http.NewElectionHandler(electionService)
	voteHandler := http.NewVoteHandler(electionService)
	handler := http.NewHandler(electionHandler, voteHandler)
	server := &stdhttp.Server{Addr: addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go monitor.Run(ctx)

	go func() {
		logger.Info("server listening", zap.String("addr", addr), zap.String("store", backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("shutdown failed", zap.Error(err))
	}
}

func buildStore(backend, dataFile string, logger *zap.Logger) (ports.ElectionRepository, ports.VoteRepository, error) {
	switch backend {
	case "jsonfile":
		store, err := jsonfile.NewStore(dataFile, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "postgres":
		connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("POSTGRES_HOST"), os.Getenv("POSTGRES_PORT"), os.Getenv("POSTGRES_DB"))
		db, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			return nil, nil, err
		}
		return postgres.NewElectionRepository(db), postgres.NewVoteRepository(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func parseAdminIDs(raw string) map[string]struct{} {
	admins := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			admins[trimmed] = struct{}{}
		}
	}
	return admins
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
