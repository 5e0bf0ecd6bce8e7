package gridutil

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/viant/sqlite-a5/a5"
)

// TableDDL returns the DDL for a cell-tagged point table. Each row carries
// a caller-assigned id, the raw coordinate, and the containing cell at the
// store's resolution.
//
// Cell identifiers are stored as SQLite INTEGER (two's-complement int64);
// identifiers above 2^63 therefore read back negative through plain SQL.
// Use a5_cell_hex for display.
//
// Table names are interpolated into SQL; callers should ensure the name is
// trusted and not derived from untrusted input.
func TableDDL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    id   TEXT NOT NULL PRIMARY KEY,
    lon  REAL NOT NULL,
    lat  REAL NOT NULL,
    cell INTEGER NOT NULL
);`
}

// CellIndexDDL returns the DDL for the covering index on the cell column,
// which coverage scans and per-cell aggregation rely on.
func CellIndexDDL(table string) string {
	return `CREATE INDEX IF NOT EXISTS ` + table + `_cell ON ` + table + `(cell);`
}

// UpsertPoint inserts or updates one point row, computing the containing
// cell at the given resolution.
func UpsertPoint(ctx context.Context, db *sql.DB, table string, res int, id string, lon, lat float64) error {
	if db == nil {
		return fmt.Errorf("gridutil: db is nil")
	}
	cell, err := a5.LonLatToCell(lon, lat, res)
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s(id, lon, lat, cell)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  lon = excluded.lon,
  lat = excluded.lat,
  cell = excluded.cell`, table)

	_, err = db.ExecContext(ctx, stmt, id, lon, lat, int64(uint64(cell)))
	return err
}

// DistinctCells returns the distinct cells present in a cell-tagged table,
// ascending by unsigned identifier.
func DistinctCells(ctx context.Context, db *sql.DB, table string) ([]a5.CellID, error) {
	if db == nil {
		return nil, fmt.Errorf("gridutil: db is nil")
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT cell FROM %s", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []a5.CellID
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		cells = append(cells, a5.CellID(uint64(v)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// DISTINCT orders by the signed column value; re-sort unsigned.
	sort.Slice(cells, func(a, b int) bool { return cells[a] < cells[b] })
	return cells, nil
}
