package ingest_data

import (
	"context"

	"github.com/vk/forecastgrid/internal/component"
	"github.com/vk/forecastgrid/internal/ctxlog"
	"github.com/vk/forecastgrid/internal/mockdb"
	"github.com/vk/forecastgrid/internal/registry"
)

// Name is the component name pipelines use.
const Name = "ingest_data"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Run dumps one table of the transactions database to a CSV artifact.
func Run(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	dbPath, err := inv.String("db_path")
	if err != nil {
		return err
	}
	tableName, err := inv.OptionalString("table_name", "transactions")
	if err != nil {
		return err
	}
	out, err := inv.Output("output_data")
	if err != nil {
		return err
	}

	logger.Info("Loading table from database.", "table", tableName, "db_path", dbPath)
	db, err := mockdb.OpenExisting(ctx, dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	frame, err := mockdb.ReadTable(ctx, db, tableName)
	if err != nil {
		return err
	}
	if err := frame.Write(out); err != nil {
		return err
	}
	logger.Info("Ingested data saved.", "rows", frame.Len(), "columns", len(frame.Header))
	return nil
}

// Register registers the component with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Registration{
		Name:        Name,
		Description: "Dump a table of the transactions database to CSV.",
		Inputs:      []string{"db_path", "table_name"},
		Outputs:     []string{"output_data"},
		Component:   component.Func(Run),
	})
}
