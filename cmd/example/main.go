package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/fractalvault/fractalvault"
	"github.com/fractalvault/fractalvault/pkg/logging"
	"github.com/fractalvault/fractalvault/pkg/record"
)

func main() {
	fmt.Println("Starting fractalvault example")

	engine := fractalvault.New(fractalvault.Config{
		Logger: logging.New(slog.LevelDebug),
	})

	if err := engine.Initialize("example-passphrase"); err != nil {
		log.Fatalf("Failed to initialize engine: %s", err)
	}

	ctx := context.Background()

	// Store a couple of linked-account records.
	records := []record.LinkedAccountRecord{
		{
			Category:  record.CategoryTypeA,
			Address:   "acct-0x51f9eb2cc0",
			PublicKey: "04bfcab1e3",
			Provider:  map[string]string{"name": "example-bank"},
			LinkedAt:  time.Now().UTC(),
		},
		{
			Category: record.CategoryTypeC,
			Address:  "acct-0x77aa01d3fe",
			Provider: map[string]string{"name": "example-exchange", "region": "eu"},
			LinkedAt: time.Now().UTC(),
		},
	}

	for _, rec := range records {
		id, err := engine.Store(ctx, rec)
		if err != nil {
			log.Fatalf("Error storing record: %s", err)
		}
		node, _ := engine.Node(id)
		fmt.Printf("Stored %s at (%.4f, %.4f), iteration %d, complexity %d\n",
			rec.Category, node.Coordinate.X, node.Coordinate.Y, node.Iteration, node.Complexity)
	}

	stats, err := engine.Stats()
	if err != nil {
		log.Fatalf("Error computing stats: %s", err)
	}
	fmt.Printf("Nodes: %d, storage points: %d, complexity score: %.2f%%\n",
		stats.TotalNodes, stats.StoragePoints, stats.ComplexityScorePercent)

	balance, err := engine.RewardBalance()
	if err != nil {
		log.Fatalf("Error computing reward balance: %s", err)
	}
	fmt.Printf("Reward balance: %.2f\n", balance)

	exported, err := engine.ExportAll(ctx)
	if err != nil {
		log.Fatalf("Error exporting records: %s", err)
	}
	fmt.Printf("Exported %d records\n", len(exported))
}
