package app

import (
	"context"
	"fmt"

	"github.com/vk/forecastgrid/internal/mockdb"
	"github.com/vk/forecastgrid/internal/table"
)

// SeedDatabase loads a transactions CSV export into the SQLite database the
// ingestion component reads, creating the raw, cancelled and processed
// tables.
func (a *App) SeedDatabase(ctx context.Context, csvPath, dbPath string, opts mockdb.SeedOptions) (mockdb.SeedStats, error) {
	ctx = a.Context(ctx)
	logger := a.logger.With("csv", csvPath, "db_path", dbPath)

	frame, err := table.Read(csvPath)
	if err != nil {
		return mockdb.SeedStats{}, err
	}
	logger.Info("Transactions read.", "rows", frame.Len())

	db, err := mockdb.Open(ctx, dbPath)
	if err != nil {
		return mockdb.SeedStats{}, err
	}
	defer db.Close()

	stats, err := mockdb.Seed(ctx, db, frame, opts)
	if err != nil {
		return mockdb.SeedStats{}, fmt.Errorf("failed to seed %s: %w", dbPath, err)
	}
	logger.Info("✅ Database seeded.", "raw", stats.Raw, "cancelled", stats.Cancelled, "processed", stats.Processed)
	return stats, nil
}
