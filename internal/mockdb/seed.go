package mockdb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/table"
)

// CancellationWindowDays bounds how long after a sale a cancellation can be
// matched to it.
const CancellationWindowDays = 50

// SeedOptions names the tables Seed creates.
type SeedOptions struct {
	RawTable       string
	CancelledTable string
	ProcessedTable string
}

// DefaultSeedOptions returns the table names the shipped environments use.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		RawTable:       "transactions_raw",
		CancelledTable: "cancelled_transactions",
		ProcessedTable: "transactions",
	}
}

// SeedStats reports the row counts of the seeded tables.
type SeedStats struct {
	Raw       int
	Cancelled int
	Processed int
}

// seedColumns are the transaction columns the cancellation matching reads.
var seedColumns = []string{"InvoiceNo", "StockCode", "Description", "Quantity", "InvoiceDate", "UnitPrice", "CustomerID", "Country"}

// Seed loads a transactions frame into the raw table and derives the
// cancelled and processed tables from it in one transaction.
//
// Cancelled rows are those whose InvoiceNo starts with C or c. The processed
// table drops them along with every original sale a cancellation matches:
// same StockCode, CustomerID, Description and Country, equal absolute
// Quantity and UnitPrice, dated no later than the cancellation and less than
// CancellationWindowDays before it.
func Seed(ctx context.Context, db *sql.DB, f *table.Frame, opts SeedOptions) (SeedStats, error) {
	logger := ctxlog.FromContext(ctx)
	if err := f.Require(seedColumns...); err != nil {
		return SeedStats{}, fmt.Errorf("transactions: %w", err)
	}
	raw, err := quote(opts.RawTable)
	if err != nil {
		return SeedStats{}, err
	}
	cancelled, err := quote(opts.CancelledTable)
	if err != nil {
		return SeedStats{}, err
	}
	processed, err := quote(opts.ProcessedTable)
	if err != nil {
		return SeedStats{}, err
	}

	// julianday needs ISO timestamps.
	normalized := f.Clone()
	if err := normalized.Map("InvoiceDate", func(s string) (string, error) {
		t, err := table.ParseTime(s)
		if err != nil {
			return "", err
		}
		return t.Format(table.TimestampLayout), nil
	}); err != nil {
		return SeedStats{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return SeedStats{}, err
	}
	defer tx.Rollback()

	logger.Info("Creating raw transactions table.", "table", opts.RawTable, "rows", normalized.Len())
	if err := writeTable(ctx, tx, opts.RawTable, normalized); err != nil {
		return SeedStats{}, err
	}

	statements := []string{
		"DROP TABLE IF EXISTS " + cancelled,
		fmt.Sprintf(`CREATE TABLE %s AS SELECT * FROM %s WHERE InvoiceNo LIKE 'C%%'`, cancelled, raw),
		"DROP TABLE IF EXISTS " + processed,
		fmt.Sprintf(`CREATE TABLE %[1]s AS
SELECT * FROM %[2]s o
WHERE o.InvoiceNo NOT LIKE 'C%%'
  AND NOT EXISTS (
    SELECT 1 FROM %[3]s c
    WHERE o.StockCode = c.StockCode
      AND o.CustomerID = c.CustomerID
      AND ABS(o.Quantity) = ABS(c.Quantity)
      AND o.Description = c.Description
      AND o.Country = c.Country
      AND ABS(o.UnitPrice) = ABS(c.UnitPrice)
      AND o.InvoiceDate <= c.InvoiceDate
      AND (julianday(c.InvoiceDate) - julianday(o.InvoiceDate)) < %[4]d
  )`, processed, raw, cancelled, CancellationWindowDays),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return SeedStats{}, fmt.Errorf("failed to seed database: %w", err)
		}
	}

	stats := SeedStats{}
	for _, c := range []struct {
		ident string
		dst   *int
	}{{raw, &stats.Raw}, {cancelled, &stats.Cancelled}, {processed, &stats.Processed}} {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.ident).Scan(c.dst); err != nil {
			return SeedStats{}, fmt.Errorf("failed to count rows: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return SeedStats{}, err
	}

	logger.Info("Seeded database.", "raw", stats.Raw, "cancelled", stats.Cancelled, "processed", stats.Processed)
	return stats, nil
}
