package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/viant/sqlite-a5/a5"
	"github.com/viant/sqlite-a5/engine"
	"github.com/viant/sqlite-a5/grid"
)

var (
	dbPath string

	rootCmd = &cobra.Command{
		Use:   "a5sql",
		Short: "SQLite shell and tooling for the a5 pentagonal spatial index",
		Long: `a5sql opens a SQLite database with the a5_* cell functions and the
grid virtual tables registered, and provides helpers for indexing
coordinate data into cell-tagged tables, compacting cell sets, rendering
cell boundaries and snapping points onto indexed data.

The database path comes from --db, or the A5SQL_DB environment variable
(a .env file in the working directory is honored), or :memory:.`,
		SilenceUsage: true,
	}

	execCmd = &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute a SQL statement with the a5 functions available",
		Args:  cobra.ExactArgs(1),
		RunE:  runExec,
	}

	compactCmd = &cobra.Command{
		Use:   "compact [cell...]",
		Short: "Compact a cell set, merging complete sibling quartets",
		Long: `Compact reads cell identifiers from the arguments, or one per line
from standard input when no arguments are given, and prints the minimal
equivalent covering set, one identifier per line. Identifiers are
accepted as unsigned decimal, signed decimal, or 0x-prefixed hex.`,
		RunE: runCompact,
	}

	uncompactRes int

	uncompactCmd = &cobra.Command{
		Use:   "uncompact [cell...]",
		Short: "Expand a cell set to a uniform target resolution",
		RunE:  runUncompact,
	}

	boundarySegments int
	boundaryOpen     bool

	boundaryCmd = &cobra.Command{
		Use:   "boundary <cell>",
		Short: "Print a cell's boundary as a GeoJSON coordinate ring",
		Args:  cobra.ExactArgs(1),
		RunE:  runBoundary,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $A5SQL_DB or :memory:)")

	uncompactCmd.Flags().IntVar(&uncompactRes, "res", -1, "target resolution (required)")
	uncompactCmd.MarkFlagRequired("res")

	boundaryCmd.Flags().IntVar(&boundarySegments, "segments", 0, "sub-segments per edge (0 picks a resolution default)")
	boundaryCmd.Flags().BoolVar(&boundaryOpen, "open", false, "do not repeat the first vertex at the end")

	rootCmd.AddCommand(execCmd, compactCmd, uncompactCmd, boundaryCmd, indexCmd, snapCmd)
}

// databasePath resolves the database to open, in flag > environment >
// in-memory order. Called at run time so a .env-provided A5SQL_DB is seen.
func databasePath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("A5SQL_DB"); env != "" {
		return env
	}
	return ":memory:"
}

// openDB opens the resolved database with the scalar functions registered
// and the grid virtual-table modules attached. The pool is pinned to one
// connection so per-connection module registration covers every statement.
func openDB() (*sql.DB, error) {
	dsn := databasePath()
	db, err := engine.OpenIndexed(dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := grid.Register(db); err != nil {
		logger.Warn("grid virtual tables unavailable", "error", err)
	}
	logger.Debug("database open", "dsn", dsn)
	return db, nil
}

func runExec(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(args[0])
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cols, "\t"))
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	n := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		out := make([]string, len(vals))
		for i, v := range vals {
			switch t := v.(type) {
			case nil:
				out[i] = "NULL"
			case []byte:
				out[i] = string(t)
			default:
				out[i] = fmt.Sprint(t)
			}
		}
		fmt.Println(strings.Join(out, "\t"))
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	logger.Debug("exec done", "rows", n)
	return nil
}

func runCompact(cmd *cobra.Command, args []string) error {
	cells, err := readCellArgs(cmd, args)
	if err != nil {
		return err
	}
	out, err := a5.Compact(cells)
	if err != nil {
		return err
	}
	logger.Debug("compacted", "in", len(cells), "out", len(out))
	printCells(out)
	return nil
}

func runUncompact(cmd *cobra.Command, args []string) error {
	cells, err := readCellArgs(cmd, args)
	if err != nil {
		return err
	}
	out, err := a5.Uncompact(cells, uncompactRes)
	if err != nil {
		return err
	}
	logger.Debug("uncompacted", "in", len(cells), "out", len(out))
	printCells(out)
	return nil
}

func runBoundary(cmd *cobra.Command, args []string) error {
	cell, err := parseCell(args[0])
	if err != nil {
		return err
	}
	var opts []a5.BoundaryOption
	if boundarySegments > 0 {
		opts = append(opts, a5.WithSegments(boundarySegments))
	}
	if boundaryOpen {
		opts = append(opts, a5.WithOpenRing())
	}
	ring, err := a5.CellToBoundary(cell, opts...)
	if err != nil {
		return err
	}
	coords := make([][2]float64, len(ring))
	for i, v := range ring {
		coords[i] = [2]float64{v.Lon, v.Lat}
	}
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(coords)
}

// readCellArgs parses cell identifiers from the arguments, or one per
// line from standard input when no arguments are given.
func readCellArgs(cmd *cobra.Command, args []string) ([]a5.CellID, error) {
	toks := args
	if len(toks) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		toks = strings.Fields(string(data))
	}
	cells := make([]a5.CellID, 0, len(toks))
	for _, tok := range toks {
		c, err := parseCell(tok)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// parseCell reads a cell identifier as unsigned decimal, signed decimal
// (SQLite's two's-complement rendering), or 0x-prefixed hex.
func parseCell(tok string) (a5.CellID, error) {
	tok = strings.TrimSpace(tok)
	switch {
	case strings.HasPrefix(tok, "0x"), strings.HasPrefix(tok, "0X"):
		v, err := strconv.ParseUint(tok[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("cell %q: %w", tok, err)
		}
		return a5.CellID(v), nil
	case strings.HasPrefix(tok, "-"):
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cell %q: %w", tok, err)
		}
		return a5.CellID(uint64(v)), nil
	default:
		v, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cell %q: %w", tok, err)
		}
		return a5.CellID(v), nil
	}
}

func printCells(cells []a5.CellID) {
	for _, c := range cells {
		fmt.Printf("%d\n", uint64(c))
	}
}
