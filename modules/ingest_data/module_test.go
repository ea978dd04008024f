package ingest_data

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/forecastgrid/internal/mockdb"
	"github.com/vk/forecastgrid/internal/registry"
	"github.com/vk/forecastgrid/internal/table"
	"github.com/vk/forecastgrid/internal/testutil"
)

func TestRun(t *testing.T) {
	// --- Arrange ---
	ctx := new(testutil.SafeBuffer).Context()
	dbPath := filepath.Join(t.TempDir(), "retail.db")
	db, err := mockdb.Open(ctx, dbPath)
	require.NoError(t, err)
	f := table.New("InvoiceNo", "Quantity")
	f.Append("536365", "6")
	f.Append("536366", "2")
	require.NoError(t, mockdb.WriteTable(ctx, db, "transactions", f))
	require.NoError(t, db.Close())

	inv := testutil.Invocation(t, Name, map[string]any{"db_path": dbPath, "table_name": "transactions"}, "output_data")

	// --- Act ---
	err = Run(ctx, inv)

	// --- Assert ---
	require.NoError(t, err)
	got, err := table.Read(inv.Outputs["output_data"])
	require.NoError(t, err)
	assert.Equal(t, f.Header, got.Header)
	assert.Equal(t, f.Rows, got.Rows)
}

func TestRun_Failures(t *testing.T) {
	ctx := new(testutil.SafeBuffer).Context()

	t.Run("missing database", func(t *testing.T) {
		inv := testutil.Invocation(t, Name, map[string]any{"db_path": filepath.Join(t.TempDir(), "none.db")}, "output_data")
		assert.ErrorContains(t, Run(ctx, inv), "does not exist")
	})

	t.Run("missing db_path input", func(t *testing.T) {
		inv := testutil.Invocation(t, Name, map[string]any{}, "output_data")
		assert.ErrorContains(t, Run(ctx, inv), "required input 'db_path' is not set")
	})

	t.Run("undeclared output", func(t *testing.T) {
		inv := testutil.Invocation(t, Name, map[string]any{"db_path": "x.db"})
		assert.ErrorContains(t, Run(ctx, inv), "does not declare output 'output_data'")
	})
}

func TestRegister(t *testing.T) {
	r := registry.New()
	new(Module).Register(r)
	assert.True(t, r.Has(Name))
}
