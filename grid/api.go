package grid

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-a5/a5"
	"github.com/viant/sqlite-a5/cellset"
)

const (
	kindChildren  = "a5_children"
	kindBoundary  = "a5_boundary"
	kindCompact   = "a5_compact"
	kindUncompact = "a5_uncompact"
)

// schemas declares the column layout per module: output columns first,
// then the hidden input columns that queries constrain with equality.
var schemas = map[string]string{
	kindChildren:  "child INTEGER, parent INTEGER HIDDEN, res INTEGER HIDDEN",
	kindBoundary:  "seq INTEGER, lon REAL, lat REAL, cell INTEGER HIDDEN, segments INTEGER HIDDEN",
	kindCompact:   "cell INTEGER, cells TEXT HIDDEN",
	kindUncompact: "cell INTEGER, cells TEXT HIDDEN, res INTEGER HIDDEN",
}

// outputCols is the number of leading non-hidden columns per module.
var outputCols = map[string]int{
	kindChildren:  1,
	kindBoundary:  3,
	kindCompact:   1,
	kindUncompact: 1,
}

const (
	idxInputs = iota + 1
	idxInputsSegments
)

// Register registers the grid virtual-table modules with the provided
// *sql.DB. Each module is instantiated with CREATE VIRTUAL TABLE, after
// which the table streams rows for the inputs given in the WHERE clause.
func Register(db *sql.DB) error {
	for _, kind := range []string{kindChildren, kindBoundary, kindCompact, kindUncompact} {
		if err := vtab.RegisterModule(db, kind, &Module{kind: kind}); err != nil {
			if strings.Contains(err.Error(), "already registered") {
				continue
			}
			return err
		}
	}
	return nil
}

// Module implements vtab.Module for one grid table-valued function.
type Module struct {
	kind string
}

// Table represents a single grid virtual table instance.
type Table struct {
	kind string
}

// Cursor scans the rows computed for one set of pushed-down inputs.
type Cursor struct {
	kind   string
	cells  []a5.CellID
	ring   []a5.LonLat
	hidden []vtab.Value
	pos    int
}

// Create initializes a grid table instance. Grid tables carry no state
// beyond their declared schema, so creation and connection coincide.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

// Connect attaches to a grid table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("%s: CONNECT expects at least 3 args, got %d", m.kind, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("%s: EnableConstraintSupport failed: %w", m.kind, err)
	}
	schema, ok := schemas[m.kind]
	if !ok {
		return nil, fmt.Errorf("a5 grid: unknown module %q", m.kind)
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(%s)", args[2], schema)); err != nil {
		return nil, err
	}
	return &Table{kind: m.kind}, nil
}

// BestIndex requires equality constraints on the hidden input columns and
// assigns them sequential argument slots for Filter.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	byCol := make(map[int]*vtab.Constraint)
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable || c.Op != vtab.OpEQ {
			continue
		}
		if _, seen := byCol[c.Column]; !seen {
			byCol[c.Column] = c
		}
	}
	take := func(col, arg int) bool {
		c := byCol[col]
		if c == nil {
			return false
		}
		c.ArgIndex = arg
		c.Omit = true
		return true
	}
	info.IdxNum = idxInputs
	switch t.kind {
	case kindChildren:
		if !take(1, 0) || !take(2, 1) {
			return fmt.Errorf("a5_children: parent and res constraints are required")
		}
	case kindBoundary:
		if !take(3, 0) {
			return fmt.Errorf("a5_boundary: cell constraint is required")
		}
		if take(4, 1) {
			info.IdxNum = idxInputsSegments
		}
	case kindCompact:
		if !take(1, 0) {
			return fmt.Errorf("a5_compact: cells constraint is required")
		}
	case kindUncompact:
		if !take(1, 0) || !take(2, 1) {
			return fmt.Errorf("a5_uncompact: cells and res constraints are required")
		}
	default:
		return fmt.Errorf("a5 grid: unknown module %q", t.kind)
	}
	return nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{kind: t.kind}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy drops nothing; grid tables hold no persistent state.
func (t *Table) Destroy() error { return nil }

// Filter computes the result rows for the pushed-down inputs.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.cells = nil
	c.ring = nil
	c.pos = 0
	c.hidden = c.hidden[:0]
	for _, v := range vals {
		// Detach byte buffers from the driver before the call returns.
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		c.hidden = append(c.hidden, v)
	}

	switch c.kind {
	case kindChildren:
		if len(vals) < 2 || vals[0] == nil || vals[1] == nil {
			return fmt.Errorf("a5_children: parent and res arguments are required")
		}
		parent, err := cellValue(vals[0])
		if err != nil {
			return err
		}
		res, err := intValue(vals[1])
		if err != nil {
			return err
		}
		rows, err := a5.CellToChildrenAt(parent, res)
		if err != nil {
			return err
		}
		c.cells = rows
		return nil
	case kindBoundary:
		if len(vals) < 1 || vals[0] == nil {
			return fmt.Errorf("a5_boundary: cell argument is required")
		}
		cell, err := cellValue(vals[0])
		if err != nil {
			return err
		}
		var opts []a5.BoundaryOption
		if idxNum == idxInputsSegments {
			if len(vals) < 2 || vals[1] == nil {
				return fmt.Errorf("a5_boundary: missing segments constraint")
			}
			segments, err := intValue(vals[1])
			if err != nil {
				return err
			}
			opts = append(opts, a5.WithSegments(segments))
		}
		ring, err := a5.CellToBoundary(cell, opts...)
		if err != nil {
			return err
		}
		c.ring = ring
		return nil
	case kindCompact:
		if len(vals) < 1 || vals[0] == nil {
			return fmt.Errorf("a5_compact: cells argument is required")
		}
		cells, err := decodeCellsArg(vals[0])
		if err != nil {
			return err
		}
		set, err := cellset.FromCells(cells)
		if err != nil {
			return err
		}
		c.cells = set.Compact()
		return nil
	case kindUncompact:
		if len(vals) < 2 || vals[0] == nil || vals[1] == nil {
			return fmt.Errorf("a5_uncompact: cells and res arguments are required")
		}
		res, err := intValue(vals[1])
		if err != nil {
			return err
		}
		rows, err := expandCells(vals[0], res)
		if err != nil {
			return err
		}
		c.cells = rows
		return nil
	default:
		return fmt.Errorf("a5 grid: unsupported query plan")
	}
}

func (c *Cursor) count() int {
	if c.kind == kindBoundary {
		return len(c.ring)
	}
	return len(c.cells)
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < c.count() {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= c.count() }

// Column returns the value of a column in the current row. Hidden input
// columns echo the constrained values; an unconstrained segments column
// reads as NULL.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= c.count() {
		return nil, fmt.Errorf("%s: Column out of range (pos=%d,len=%d)", c.kind, c.pos, c.count())
	}
	if c.kind == kindBoundary {
		switch col {
		case 0:
			return int64(c.pos), nil
		case 1:
			return c.ring[c.pos].Lon, nil
		case 2:
			return c.ring[c.pos].Lat, nil
		}
	} else if col == 0 {
		return int64(c.cells[c.pos]), nil
	}
	idx := col - outputCols[c.kind]
	if idx < 0 {
		return nil, fmt.Errorf("%s: unsupported column %d", c.kind, col)
	}
	if idx < len(c.hidden) {
		return c.hidden[idx], nil
	}
	return nil, nil
}

// Rowid returns the current row position.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= c.count() {
		return 0, fmt.Errorf("%s: Rowid out of range (pos=%d,len=%d)", c.kind, c.pos, c.count())
	}
	return int64(c.pos), nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.cells = nil; c.ring = nil; c.pos = 0; return nil }

func cellValue(v vtab.Value) (a5.CellID, error) {
	switch val := v.(type) {
	case int64:
		return a5.CellID(uint64(val)), nil
	case string:
		return parseCellToken(strings.TrimSpace(val))
	case []byte:
		return parseCellToken(strings.TrimSpace(string(val)))
	default:
		return 0, fmt.Errorf("a5 grid: unsupported cell argument type %T", v)
	}
}

func intValue(v vtab.Value) (int, error) {
	switch val := v.(type) {
	case int64:
		return int(val), nil
	case float64:
		n := int(val)
		if float64(n) != val {
			return 0, fmt.Errorf("a5 grid: expected integer argument, got %v", val)
		}
		return n, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, fmt.Errorf("a5 grid: cannot parse integer %q: %w", val, err)
		}
		return n, nil
	case []byte:
		return intValue(string(val))
	default:
		return 0, fmt.Errorf("a5 grid: unsupported integer argument type %T", v)
	}
}

const (
	cellsText = byte('T')
	cellsBlob = byte('B')
)

// rawCellsArg normalizes a cells argument to its raw bytes plus a tag for
// the carrying representation. BLOBs carry the cellset codec; TEXT carries
// JSON or a comma-separated list.
func rawCellsArg(v vtab.Value) ([]byte, byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, cellsBlob, nil
	case string:
		return []byte(val), cellsText, nil
	default:
		return nil, 0, fmt.Errorf("a5 grid: expected cells as TEXT or BLOB, got %T", v)
	}
}

func decodeRawCells(raw []byte, kind byte) ([]a5.CellID, error) {
	if kind == cellsBlob {
		return cellset.DecodeCells(raw)
	}
	return decodeCellsString(string(raw))
}

func decodeCellsArg(v vtab.Value) ([]a5.CellID, error) {
	raw, kind, err := rawCellsArg(v)
	if err != nil {
		return nil, err
	}
	return decodeRawCells(raw, kind)
}

// decodeCellsString parses a cell list given as text: a JSON array of
// integers as produced by the a5_* scalar functions, or a comma-separated
// list. Negative entries are two's-complement renderings of identifiers
// above 2^63.
func decodeCellsString(raw string) ([]a5.CellID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("a5 grid: cells argument is empty")
	}
	if strings.HasPrefix(s, "[") {
		var nums []json.Number
		if err := json.Unmarshal([]byte(s), &nums); err != nil {
			return nil, fmt.Errorf("a5 grid: invalid cells JSON: %w", err)
		}
		cells := make([]a5.CellID, 0, len(nums))
		for _, n := range nums {
			c, err := parseCellToken(n.String())
			if err != nil {
				return nil, err
			}
			cells = append(cells, c)
		}
		return cells, nil
	}
	parts := strings.Split(s, ",")
	cells := make([]a5.CellID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		c, err := parseCellToken(p)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("a5 grid: cells argument is empty")
	}
	return cells, nil
}

func parseCellToken(tok string) (a5.CellID, error) {
	if u, err := strconv.ParseUint(tok, 10, 64); err == nil {
		return a5.CellID(u), nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("a5 grid: invalid cell %q: %w", tok, err)
	}
	return a5.CellID(uint64(i)), nil
}

// Shared cache of uncompact expansions for cross-cursor reuse. Keys are an
// xxhash fingerprint of the argument, verified against the stored argument
// on hit. Expansions are deterministic so entries never invalidate; the
// map resets wholesale once it outgrows maxCachedExpansions. Cached slices
// are shared between cursors and must not be mutated.
const maxCachedExpansions = 256

type expandEntry struct {
	raw  string
	kind byte
	res  int
	rows []a5.CellID
}

var expandCache = struct {
	mu    sync.RWMutex
	byKey map[uint64]expandEntry
}{byKey: make(map[uint64]expandEntry)}

func expandKey(raw []byte, kind byte, res int) uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte{kind})
	_, _ = h.Write(raw)
	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], uint64(res))
	_, _ = h.Write(tail[:])
	return h.Sum64()
}

func cachedExpansion(key uint64, raw []byte, kind byte, res int) ([]a5.CellID, bool) {
	expandCache.mu.RLock()
	entry, ok := expandCache.byKey[key]
	expandCache.mu.RUnlock()
	if !ok || entry.kind != kind || entry.res != res || entry.raw != string(raw) {
		return nil, false
	}
	return entry.rows, true
}

func storeExpansion(key uint64, raw []byte, kind byte, res int, rows []a5.CellID) {
	expandCache.mu.Lock()
	if len(expandCache.byKey) >= maxCachedExpansions {
		expandCache.byKey = make(map[uint64]expandEntry, maxCachedExpansions)
	}
	expandCache.byKey[key] = expandEntry{raw: string(raw), kind: kind, res: res, rows: rows}
	expandCache.mu.Unlock()
}

// expandCells resolves an uncompact expansion through the shared cache.
func expandCells(arg vtab.Value, res int) ([]a5.CellID, error) {
	raw, kind, err := rawCellsArg(arg)
	if err != nil {
		return nil, err
	}
	key := expandKey(raw, kind, res)
	if rows, ok := cachedExpansion(key, raw, kind, res); ok {
		return rows, nil
	}
	cells, err := decodeRawCells(raw, kind)
	if err != nil {
		return nil, err
	}
	set := cellset.New()
	for _, cell := range cells {
		if err := set.AddChildren(cell, res); err != nil {
			return nil, err
		}
	}
	rows := set.Cells()
	storeExpansion(key, raw, kind, res, rows)
	return rows, nil
}
