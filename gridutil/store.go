package gridutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-a5/a5"
	"github.com/viant/sqlite-a5/nearest"
)

// Store provides a higher-level API over a cell-tagged point table: create,
// bulk upsert, compacted coverage extraction, per-parent aggregation and
// nearest-cell snapping. The a5_* scalar functions must be registered on
// the connection (engine.OpenIndexed or engine.RegisterCellFunctions) for
// CountByParent to work; the other operations use only plain SQL.
type Store struct {
	DB         *sql.DB
	Table      string
	Resolution int
}

// NewStore constructs a Store for a cell-tagged table at the given indexing
// resolution. The table is not created until Create is called.
func NewStore(db *sql.DB, table string, res int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gridutil: db is nil")
	}
	if table == "" {
		return nil, fmt.Errorf("gridutil: table name is empty")
	}
	if res < a5.MinResolution || res > a5.MaxResolution {
		return nil, fmt.Errorf("%w: %d", a5.ErrInvalidResolution, res)
	}
	return &Store{DB: db, Table: table, Resolution: res}, nil
}

// Create creates the point table and its cell index if they do not exist.
func (s *Store) Create(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, TableDDL(s.Table)); err != nil {
		return err
	}
	_, err := s.DB.ExecContext(ctx, CellIndexDDL(s.Table))
	return err
}

// Point is one input row for UpsertPoints.
type Point struct {
	ID  string
	Lon float64
	Lat float64
}

// TaggedPoint is a point whose containing cell has already been derived,
// for callers that parallelize cell computation across batches before a
// single writing transaction.
type TaggedPoint struct {
	ID   string
	Lon  float64
	Lat  float64
	Cell a5.CellID
}

// Tag derives the containing cell of every point at the store's
// resolution. Safe for concurrent use on disjoint batches.
func (s *Store) Tag(points []Point) ([]TaggedPoint, error) {
	out := make([]TaggedPoint, len(points))
	for i, p := range points {
		cell, err := a5.LonLatToCell(p.Lon, p.Lat, s.Resolution)
		if err != nil {
			return nil, fmt.Errorf("gridutil: point %q: %w", p.ID, err)
		}
		out[i] = TaggedPoint{ID: p.ID, Lon: p.Lon, Lat: p.Lat, Cell: cell}
	}
	return out, nil
}

// UpsertPoints upserts the points in a single transaction, computing each
// containing cell at the store's resolution. On any error the whole batch
// rolls back.
func (s *Store) UpsertPoints(ctx context.Context, points []Point) error {
	tagged, err := s.Tag(points)
	if err != nil {
		return err
	}
	return s.UpsertTagged(ctx, tagged)
}

// UpsertTagged upserts pre-tagged rows in a single transaction. On any
// error the whole batch rolls back.
func (s *Store) UpsertTagged(ctx context.Context, rows []TaggedPoint) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s(id, lon, lat, cell)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  lon = excluded.lon,
  lat = excluded.lat,
  cell = excluded.cell`, s.Table))
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, r := range rows {
		if !r.Cell.Valid() {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("%w: row %q", a5.ErrInvalidCell, r.ID)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Lon, r.Lat, int64(uint64(r.Cell))); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

// Coverage returns the compacted set of cells occupied by the stored
// points: complete sibling quartets are merged into their parents, so the
// result is the minimal cell set covering exactly the occupied cells.
func (s *Store) Coverage(ctx context.Context) ([]a5.CellID, error) {
	cells, err := DistinctCells(ctx, s.DB, s.Table)
	if err != nil {
		return nil, err
	}
	return a5.Compact(cells)
}

// CellCount pairs a cell with the number of stored points it contains.
type CellCount struct {
	Cell  a5.CellID
	Count int64
}

// CountByParent aggregates point counts per ancestor cell at the given
// resolution, ordered by descending count then ascending cell. The parent
// derivation runs inside SQLite through the a5_cell_to_parent scalar
// function.
func (s *Store) CountByParent(ctx context.Context, res int) ([]CellCount, error) {
	if res < a5.MinResolution || res > s.Resolution {
		return nil, fmt.Errorf("%w: parent resolution %d for a resolution-%d store", a5.ErrInvalidResolution, res, s.Resolution)
	}
	q := fmt.Sprintf(`
SELECT a5_cell_to_parent(cell, ?) AS parent, COUNT(*) AS n
FROM %s GROUP BY parent ORDER BY n DESC, parent`, s.Table)
	rows, err := s.DB.QueryContext(ctx, q, res)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CellCount
	for rows.Next() {
		var cell, n int64
		if err := rows.Scan(&cell, &n); err != nil {
			return nil, err
		}
		out = append(out, CellCount{Cell: a5.CellID(uint64(cell)), Count: n})
	}
	return out, rows.Err()
}

// SnapResult is one nearest-cell hit: an occupied cell, the great-circle
// distance from the query point to its center, and its point count.
type SnapResult struct {
	Cell   a5.CellID
	Meters float64
	Count  int64
}

// Snap returns the k occupied cells whose centers lie nearest the given
// coordinate, closest first. It builds a transient brute-force index over
// the distinct cells of the table; suitable for tables with up to a few
// hundred thousand distinct cells.
func (s *Store) Snap(ctx context.Context, lon, lat float64, k int) ([]SnapResult, error) {
	cells, err := DistinctCells(ctx, s.DB, s.Table)
	if err != nil {
		return nil, err
	}
	var idx nearest.Index
	if err := idx.Build(cells); err != nil {
		return nil, err
	}
	hit, meters, err := idx.Query(lon, lat, k)
	if err != nil {
		return nil, err
	}

	countStmt, err := s.DB.PrepareContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE cell = ?", s.Table))
	if err != nil {
		return nil, err
	}
	defer countStmt.Close()

	out := make([]SnapResult, len(hit))
	for i, c := range hit {
		var n int64
		if err := countStmt.QueryRowContext(ctx, int64(uint64(c))).Scan(&n); err != nil {
			return nil, err
		}
		out[i] = SnapResult{Cell: c, Meters: meters[i], Count: n}
	}
	return out, nil
}
