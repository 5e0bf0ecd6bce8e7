package engine

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	sqlite "modernc.org/sqlite"

	"github.com/viant/sqlite-a5/a5"
)

// RegisterCellFunctions registers the a5_* scalar functions with the driver
// so they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
//
// Cell identifiers cross the SQL boundary as two's-complement INTEGER
// values: identifiers above 2^63 display as negative but round-trip
// bit-exactly. a5_cell_hex renders the unsigned form. Any NULL argument
// makes a function return NULL.
func RegisterCellFunctions(_ *sql.DB) error {
	// Idempotent registration; driver rejects duplicates but we ignore errors silently here.
	_ = sqlite.RegisterDeterministicScalarFunction("a5_lonlat_to_cell", 3, lonLatToCellImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_to_lon", 1, cellToLonImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_to_lat", 1, cellToLatImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_to_parent", 2, cellToParentImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_to_children", 2, cellToChildrenImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_resolution", 1, cellResolutionImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_valid", 1, cellValidImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_area", 1, cellAreaImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_num_cells", 1, numCellsImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_res0_cells", 0, res0CellsImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_to_boundary", 1, cellToBoundaryImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_compact", 1, compactImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_uncompact", 2, uncompactImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("a5_cell_hex", 1, cellHexImpl)
	return nil
}

func asCell(arg driver.Value) (a5.CellID, bool, error) {
	switch v := arg.(type) {
	case nil:
		return 0, true, nil
	case int64:
		return a5.CellID(uint64(v)), false, nil
	default:
		return 0, false, fmt.Errorf("a5: unsupported argument type %T for cell; want INTEGER", arg)
	}
}

func asResolution(arg driver.Value) (int, bool, error) {
	switch v := arg.(type) {
	case nil:
		return 0, true, nil
	case int64:
		return int(v), false, nil
	default:
		return 0, false, fmt.Errorf("a5: unsupported argument type %T for resolution; want INTEGER", arg)
	}
}

func asCoordinate(arg driver.Value) (float64, bool, error) {
	switch v := arg.(type) {
	case nil:
		return 0, true, nil
	case float64:
		return v, false, nil
	case int64:
		return float64(v), false, nil
	default:
		return 0, false, fmt.Errorf("a5: unsupported argument type %T for coordinate; want REAL", arg)
	}
}

func asText(arg driver.Value) (string, bool, error) {
	switch v := arg.(type) {
	case nil:
		return "", true, nil
	case string:
		return v, false, nil
	case []byte:
		return string(v), false, nil
	default:
		return "", false, fmt.Errorf("a5: unsupported argument type %T for cell list; want TEXT", arg)
	}
}

func lonLatToCellImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("a5_lonlat_to_cell: expected 3 arguments, got %d", len(args))
	}
	lon, null, err := asCoordinate(args[0])
	if err != nil || null {
		return nil, err
	}
	lat, null, err := asCoordinate(args[1])
	if err != nil || null {
		return nil, err
	}
	res, null, err := asResolution(args[2])
	if err != nil || null {
		return nil, err
	}
	c, err := a5.LonLatToCell(lon, lat, res)
	if err != nil {
		return nil, err
	}
	return int64(c), nil
}

func cellToLonImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_to_lon: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	ll, err := a5.CellToLonLat(c)
	if err != nil {
		return nil, err
	}
	return ll.Lon, nil
}

func cellToLatImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_to_lat: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	ll, err := a5.CellToLonLat(c)
	if err != nil {
		return nil, err
	}
	return ll.Lat, nil
}

func cellToParentImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("a5_cell_to_parent: expected 2 arguments, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	res, null, err := asResolution(args[1])
	if err != nil || null {
		return nil, err
	}
	parent, err := a5.CellToParent(c, res)
	if err != nil {
		return nil, err
	}
	return int64(parent), nil
}

// cellToChildrenImpl expands a cell to its descendants at an absolute
// target resolution and returns them as a JSON array. Row-per-child
// consumers should prefer the a5_children virtual table.
func cellToChildrenImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("a5_cell_to_children: expected 2 arguments, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	res, null, err := asResolution(args[1])
	if err != nil || null {
		return nil, err
	}
	kids, err := a5.CellToChildrenAt(c, res)
	if err != nil {
		return nil, err
	}
	return cellsToJSON(kids)
}

func cellResolutionImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_resolution: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	return int64(c.Resolution()), nil
}

func cellValidImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_valid: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	if c.Valid() {
		return int64(1), nil
	}
	return int64(0), nil
}

func cellAreaImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_area: expected 1 argument, got %d", len(args))
	}
	res, null, err := asResolution(args[0])
	if err != nil || null {
		return nil, err
	}
	area, err := a5.CellArea(res)
	if err != nil {
		return nil, err
	}
	return area, nil
}

// numCellsImpl returns the cell count as INTEGER where it fits; the
// resolution-30 count exceeds int64 and is returned as its decimal TEXT.
func numCellsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_num_cells: expected 1 argument, got %d", len(args))
	}
	res, null, err := asResolution(args[0])
	if err != nil || null {
		return nil, err
	}
	n, err := a5.NumCells(res)
	if err != nil {
		return nil, err
	}
	if n > uint64(math.MaxInt64) {
		return strconv.FormatUint(n, 10), nil
	}
	return int64(n), nil
}

func res0CellsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("a5_res0_cells: expected 0 arguments, got %d", len(args))
	}
	return cellsToJSON(a5.Res0Cells())
}

func cellToBoundaryImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_to_boundary: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	ring, err := a5.CellToBoundary(c)
	if err != nil {
		return nil, err
	}
	pts := make([][2]float64, len(ring))
	for i, v := range ring {
		pts[i] = [2]float64{v.Lon, v.Lat}
	}
	b, err := json.Marshal(pts)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func compactImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_compact: expected 1 argument, got %d", len(args))
	}
	text, null, err := asText(args[0])
	if err != nil || null {
		return nil, err
	}
	cells, err := parseCellList(text)
	if err != nil {
		return nil, err
	}
	compacted, err := a5.Compact(cells)
	if err != nil {
		return nil, err
	}
	return cellsToJSON(compacted)
}

func uncompactImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("a5_uncompact: expected 2 arguments, got %d", len(args))
	}
	text, null, err := asText(args[0])
	if err != nil || null {
		return nil, err
	}
	res, null, err := asResolution(args[1])
	if err != nil || null {
		return nil, err
	}
	cells, err := parseCellList(text)
	if err != nil {
		return nil, err
	}
	expanded, err := a5.Uncompact(cells, res)
	if err != nil {
		return nil, err
	}
	return cellsToJSON(expanded)
}

func cellHexImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("a5_cell_hex: expected 1 argument, got %d", len(args))
	}
	c, null, err := asCell(args[0])
	if err != nil || null {
		return nil, err
	}
	return fmt.Sprintf("%x", uint64(c)), nil
}

// Local minimal JSON helpers; the grid virtual tables carry the richer
// cell-list decoder.
func cellsToJSON(cells []a5.CellID) (string, error) {
	ids := make([]uint64, len(cells))
	for i, c := range cells {
		ids[i] = uint64(c)
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseCellList decodes a JSON array of cell identifiers. Numbers are kept
// as arbitrary-precision decimals so identifiers above 2^53 survive, and
// negative entries are read as the two's-complement SQL view.
func parseCellList(text string) ([]a5.CellID, error) {
	var raw []json.Number
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("a5: cell list is not a JSON array: %w", err)
	}
	cells := make([]a5.CellID, len(raw))
	for i, n := range raw {
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			s, serr := strconv.ParseInt(n.String(), 10, 64)
			if serr != nil {
				return nil, fmt.Errorf("a5: cell list entry %q: %w", n.String(), err)
			}
			u = uint64(s)
		}
		cells[i] = a5.CellID(u)
	}
	return cells, nil
}
