// Package mockdb is the SQLite database that stands in for the system of
// record transactions are ingested from. It can dump any table to a
// table.Frame, write a frame as a table, and seed the raw, cancelled and
// processed transaction tables from a CSV export.
package mockdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vk/forecastgrid/internal/table"
)

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Open opens (creating if necessary) a SQLite database file.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

// OpenExisting opens a database file read-only. A missing file is an error
// rather than a new empty database.
func OpenExisting(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("database %s does not exist", path)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

// quote validates a table or column name and quotes it for SQL.
func quote(name string) (string, error) {
	if !identRegex.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return `"` + name + `"`, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ReadTable dumps every row of a table.
func ReadTable(ctx context.Context, db *sql.DB, name string) (*table.Frame, error) {
	return readTable(ctx, db, name)
}

func readTable(ctx context.Context, q querier, name string) (*table.Frame, error) {
	ident, err := quote(name)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return nil, fmt.Errorf("failed to query table '%s': %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	frame := table.New(cols...)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan table '%s': %w", name, err)
		}
		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		frame.Append(record...)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read table '%s': %w", name, err)
	}
	return frame, nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return table.FormatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(table.TimestampLayout)
	default:
		return fmt.Sprint(t)
	}
}

// WriteTable replaces a table with the frame's contents. Column types are
// inferred: INTEGER or REAL when every non-empty cell parses, TEXT
// otherwise. Empty cells are stored as NULL.
func WriteTable(ctx context.Context, db *sql.DB, name string, f *table.Frame) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := writeTable(ctx, tx, name, f); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func writeTable(ctx context.Context, q querier, name string, f *table.Frame) error {
	ident, err := quote(name)
	if err != nil {
		return err
	}
	types := inferTypes(f)
	defs := make([]string, len(f.Header))
	for i, h := range f.Header {
		col, err := quote(h)
		if err != nil {
			return fmt.Errorf("table '%s': %w", name, err)
		}
		defs[i] = col + " " + types[i]
	}

	if _, err := q.ExecContext(ctx, "DROP TABLE IF EXISTS "+ident); err != nil {
		return fmt.Errorf("failed to drop table '%s': %w", name, err)
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", ident, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create table '%s': %w", name, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Header)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", ident, placeholders)
	for i, row := range f.Rows {
		args := make([]any, len(row))
		for j, cell := range row {
			args[j] = typedValue(cell, types[j])
		}
		if _, err := q.ExecContext(ctx, insert, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into '%s': %w", i+1, name, err)
		}
	}
	return nil
}

func inferTypes(f *table.Frame) []string {
	types := make([]string, len(f.Header))
	for j := range f.Header {
		isInt, isReal, seen := true, true, false
		for _, row := range f.Rows {
			cell := row[j]
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				isReal = false
			}
		}
		switch {
		case seen && isInt:
			types[j] = "INTEGER"
		case seen && isReal:
			types[j] = "REAL"
		default:
			types[j] = "TEXT"
		}
	}
	return types
}

func typedValue(cell, typ string) any {
	if cell == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case "REAL":
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	default:
		return cell
	}
}
