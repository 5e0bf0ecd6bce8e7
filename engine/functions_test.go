package engine

import (
	"database/sql"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/viant/sqlite-a5/a5"
)

func openFunctionsDB(t *testing.T) *sql.DB {
	t.Helper()
	// Register globally before first connection so functions are available.
	db, err := OpenIndexed(":memory:")
	if err != nil {
		t.Fatalf("OpenIndexed(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLonLatToCellFunction(t *testing.T) {
	db := openFunctionsDB(t)

	var got int64
	if err := db.QueryRow("SELECT a5_lonlat_to_cell(-122.419, 37.775, 9)").Scan(&got); err != nil {
		t.Fatalf("a5_lonlat_to_cell query failed: %v", err)
	}
	want, err := a5.LonLatToCell(-122.419, 37.775, 9)
	if err != nil {
		t.Fatalf("LonLatToCell failed: %v", err)
	}
	if a5.CellID(uint64(got)) != want {
		t.Fatalf("a5_lonlat_to_cell = %d, want %d", got, want)
	}

	var res int64
	if err := db.QueryRow("SELECT a5_cell_resolution(?)", got).Scan(&res); err != nil {
		t.Fatalf("a5_cell_resolution query failed: %v", err)
	}
	if res != 9 {
		t.Fatalf("a5_cell_resolution = %d, want 9", res)
	}

	// Integer coordinate literals are accepted as coordinates.
	var again int64
	if err := db.QueryRow(
		"SELECT a5_lonlat_to_cell(a5_cell_to_lon(?), a5_cell_to_lat(?), 9)", got, got,
	).Scan(&again); err != nil {
		t.Fatalf("representative-point relocation query failed: %v", err)
	}
	if again != got {
		t.Fatalf("relocated cell = %d, want %d", again, got)
	}
	var eq int64
	if err := db.QueryRow("SELECT a5_lonlat_to_cell(0, 0, 4)").Scan(&eq); err != nil {
		t.Fatalf("integer-argument query failed: %v", err)
	}
	if a5.CellID(uint64(eq)).Resolution() != 4 {
		t.Fatalf("a5_lonlat_to_cell(0,0,4) resolution = %d, want 4", a5.CellID(uint64(eq)).Resolution())
	}
}

func TestParentAndChildrenFunctions(t *testing.T) {
	db := openFunctionsDB(t)

	cell, err := a5.LonLatToCell(151.21, -33.87, 6)
	if err != nil {
		t.Fatalf("LonLatToCell failed: %v", err)
	}
	var parent int64
	if err := db.QueryRow("SELECT a5_cell_to_parent(?, 2)", int64(cell)).Scan(&parent); err != nil {
		t.Fatalf("a5_cell_to_parent query failed: %v", err)
	}
	wantParent, err := a5.CellToParent(cell, 2)
	if err != nil {
		t.Fatalf("CellToParent failed: %v", err)
	}
	if a5.CellID(uint64(parent)) != wantParent {
		t.Fatalf("a5_cell_to_parent = %d, want %d", parent, wantParent)
	}

	var kidsJSON string
	if err := db.QueryRow("SELECT a5_cell_to_children(?, 7)", int64(cell)).Scan(&kidsJSON); err != nil {
		t.Fatalf("a5_cell_to_children query failed: %v", err)
	}
	kids, err := parseCellList(kidsJSON)
	if err != nil {
		t.Fatalf("children JSON did not parse: %v", err)
	}
	wantKids, err := a5.CellToChildren(cell)
	if err != nil {
		t.Fatalf("CellToChildren failed: %v", err)
	}
	if len(kids) != len(wantKids) {
		t.Fatalf("children count = %d, want %d", len(kids), len(wantKids))
	}
	for i := range kids {
		if kids[i] != wantKids[i] {
			t.Fatalf("child %d = %d, want %d", i, kids[i], wantKids[i])
		}
	}
}

func TestNullPropagation(t *testing.T) {
	db := openFunctionsDB(t)

	queries := []string{
		"SELECT a5_cell_resolution(NULL)",
		"SELECT a5_lonlat_to_cell(NULL, 0, 5)",
		"SELECT a5_lonlat_to_cell(0, NULL, 5)",
		"SELECT a5_lonlat_to_cell(0, 0, NULL)",
		"SELECT a5_cell_to_parent(NULL, 0)",
		"SELECT a5_uncompact(NULL, 5)",
	}
	for _, q := range queries {
		var got sql.NullInt64
		if err := db.QueryRow(q).Scan(&got); err != nil {
			t.Fatalf("%s failed: %v", q, err)
		}
		if got.Valid {
			t.Fatalf("%s = %v, want NULL", q, got.Int64)
		}
	}
}

func TestTableFunctions(t *testing.T) {
	db := openFunctionsDB(t)

	var area float64
	if err := db.QueryRow("SELECT a5_cell_area(0)").Scan(&area); err != nil {
		t.Fatalf("a5_cell_area query failed: %v", err)
	}
	wantArea := 4 * math.Pi * a5.EarthRadiusMeters * a5.EarthRadiusMeters / 12
	if math.Abs(area-wantArea) > 1e-3 {
		t.Fatalf("a5_cell_area(0) = %v, want %v", area, wantArea)
	}

	var n int64
	if err := db.QueryRow("SELECT a5_num_cells(5)").Scan(&n); err != nil {
		t.Fatalf("a5_num_cells query failed: %v", err)
	}
	if n != 12288 {
		t.Fatalf("a5_num_cells(5) = %d, want 12288", n)
	}

	// The resolution-30 count does not fit int64 and arrives as TEXT.
	var deep string
	if err := db.QueryRow("SELECT a5_num_cells(30)").Scan(&deep); err != nil {
		t.Fatalf("a5_num_cells(30) query failed: %v", err)
	}
	if deep != "13835058055282163712" {
		t.Fatalf("a5_num_cells(30) = %q, want 13835058055282163712", deep)
	}

	var roots string
	if err := db.QueryRow("SELECT a5_res0_cells()").Scan(&roots); err != nil {
		t.Fatalf("a5_res0_cells query failed: %v", err)
	}
	if roots != "[1,2,3,4,5,6,7,8,9,10,11,12]" {
		t.Fatalf("a5_res0_cells() = %q", roots)
	}
}

func TestBoundaryFunction(t *testing.T) {
	db := openFunctionsDB(t)

	cell, err := a5.LonLatToCell(2.35, 48.86, 2)
	if err != nil {
		t.Fatalf("LonLatToCell failed: %v", err)
	}
	var ringJSON string
	if err := db.QueryRow("SELECT a5_cell_to_boundary(?)", int64(cell)).Scan(&ringJSON); err != nil {
		t.Fatalf("a5_cell_to_boundary query failed: %v", err)
	}
	var ring [][2]float64
	if err := json.Unmarshal([]byte(ringJSON), &ring); err != nil {
		t.Fatalf("boundary JSON did not parse: %v", err)
	}
	if len(ring) != 21 { // 5 edges * 4 default segments + closing vertex
		t.Fatalf("boundary vertex count = %d, want 21", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Fatalf("boundary ring not closed: %v vs %v", ring[0], ring[len(ring)-1])
	}

	var empty string
	if err := db.QueryRow("SELECT a5_cell_to_boundary(0)").Scan(&empty); err != nil {
		t.Fatalf("a5_cell_to_boundary(0) query failed: %v", err)
	}
	if empty != "[]" {
		t.Fatalf("a5_cell_to_boundary(0) = %q, want []", empty)
	}
}

func TestCompactUncompactFunctions(t *testing.T) {
	db := openFunctionsDB(t)

	var expanded string
	if err := db.QueryRow("SELECT a5_uncompact('[1]', 1)").Scan(&expanded); err != nil {
		t.Fatalf("a5_uncompact query failed: %v", err)
	}
	if expanded != "[13,14,15,16]" {
		t.Fatalf("a5_uncompact('[1]', 1) = %q, want [13,14,15,16]", expanded)
	}

	var compacted string
	if err := db.QueryRow("SELECT a5_compact(?)", expanded).Scan(&compacted); err != nil {
		t.Fatalf("a5_compact query failed: %v", err)
	}
	if compacted != "[1]" {
		t.Fatalf("a5_compact(%q) = %q, want [1]", expanded, compacted)
	}
}

func TestCellHexFunction(t *testing.T) {
	db := openFunctionsDB(t)

	// The last resolution-30 cell, 2^64-4, crosses the SQL boundary as the
	// negative INTEGER -4 but renders unsigned.
	last := int64(-4)
	var hex string
	if err := db.QueryRow("SELECT a5_cell_hex(?)", last).Scan(&hex); err != nil {
		t.Fatalf("a5_cell_hex query failed: %v", err)
	}
	if hex != "fffffffffffffffc" {
		t.Fatalf("a5_cell_hex = %q, want fffffffffffffffc", hex)
	}
	var valid int64
	if err := db.QueryRow("SELECT a5_cell_valid(?)", last).Scan(&valid); err != nil {
		t.Fatalf("a5_cell_valid query failed: %v", err)
	}
	if valid != 1 {
		t.Fatalf("a5_cell_valid(last cell) = %d, want 1", valid)
	}
}

func TestFunctionErrors(t *testing.T) {
	db := openFunctionsDB(t)

	cases := []struct {
		query string
		want  string
	}{
		{"SELECT a5_lonlat_to_cell(200, 0, 5)", "coordinate out of range"},
		{"SELECT a5_lonlat_to_cell(0, 0, 31)", "invalid resolution"},
		{"SELECT a5_cell_to_lon(0)", "invalid cell"},
		{"SELECT a5_cell_area(-1)", "invalid resolution"},
		{"SELECT a5_uncompact('[13]', 0)", "invalid resolution"},
		{"SELECT a5_compact('not json')", "JSON"},
	}
	for _, tc := range cases {
		var out any
		err := db.QueryRow(tc.query).Scan(&out)
		if err == nil {
			t.Fatalf("%s succeeded with %v, want error", tc.query, out)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s error = %q, want substring %q", tc.query, err, tc.want)
		}
	}
}
