// Command auditexport dumps one election's full vote history to a JSON
// file for offline review.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/adapters/repository/jsonfile"
	"github.com/chatmandu/elections/internal/core/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	var dataFile, electionID, outFile string
	flag.StringVar(&dataFile, "data-file", envOr("DATA_FILE", "./data/election_data.json"), "Election data file")
	flag.StringVar(&electionID, "election", "", "Election id to export")
	flag.StringVar(&outFile, "out", "", "Output file (default: audit_<election>.json)")
	flag.Parse()

	if electionID == "" {
		log.Fatal("an election id is required (-election)")
	}
	if outFile == "" {
		outFile = fmt.Sprintf("audit_%s.json", electionID)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	store, err := jsonfile.NewStore(dataFile, logger)
	if err != nil {
		logger.Fatal("failed to open election data", zap.Error(err))
	}

	electionService := services.NewElectionService(store, store, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	trail, err := electionService.AuditTrail(ctx, electionID)
	if err != nil {
		logger.Fatal("failed to build audit trail", zap.Error(err))
	}

	data, err := json.MarshalIndent(trail, "", "  ")
	if err != nil {
		logger.Fatal("failed to encode audit trail", zap.Error(err))
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		logger.Fatal("failed to write audit file", zap.Error(err))
	}

	logger.Info("audit trail exported",
		zap.String("election_id", electionID),
		zap.Int("votes", trail.TotalVotes),
		zap.String("file", outFile))
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
