package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/viant/sqlite-a5/gridutil"
)

var (
	indexTable string
	indexRes   int

	indexCmd = &cobra.Command{
		Use:   "index <points.csv>",
		Short: "Load a CSV of coordinates into a cell-tagged table",
		Long: `Index reads a CSV with columns id,lon,lat (a header row is detected
and skipped) and upserts the rows into a cell-tagged table, deriving
each row's containing cell at the chosen resolution. Cell derivation
runs across all CPUs; the write is a single transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: runIndex,
	}

	snapTable string
	snapLon   float64
	snapLat   float64
	snapK     int

	snapCmd = &cobra.Command{
		Use:   "snap",
		Short: "Find the indexed cells nearest a coordinate",
		RunE:  runSnap,
	}
)

func init() {
	indexCmd.Flags().StringVar(&indexTable, "table", "points", "target table name")
	indexCmd.Flags().IntVar(&indexRes, "res", 9, "cell resolution for indexing")

	snapCmd.Flags().StringVar(&snapTable, "table", "points", "indexed table name")
	snapCmd.Flags().Float64Var(&snapLon, "lon", 0, "query longitude")
	snapCmd.Flags().Float64Var(&snapLat, "lat", 0, "query latitude")
	snapCmd.Flags().IntVar(&snapK, "k", 1, "number of cells to return")
	snapCmd.MarkFlagRequired("lon")
	snapCmd.MarkFlagRequired("lat")
}

// tagChunk is how many points each tagging goroutine takes at a time.
const tagChunk = 4096

func runIndex(cmd *cobra.Command, args []string) error {
	points, err := readPointsCSV(args[0])
	if err != nil {
		return err
	}
	if len(points) == 0 {
		logger.Info("no rows to index", "file", args[0])
		return nil
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := gridutil.NewStore(db, indexTable, indexRes)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if err := store.Create(ctx); err != nil {
		return err
	}

	// Tag chunks in parallel, then write everything in one transaction.
	tagged := make([]gridutil.TaggedPoint, len(points))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for start := 0; start < len(points); start += tagChunk {
		end := start + tagChunk
		if end > len(points) {
			end = len(points)
		}
		start, end := start, end
		g.Go(func() error {
			chunk, err := store.Tag(points[start:end])
			if err != nil {
				return err
			}
			copy(tagged[start:end], chunk)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := store.UpsertTagged(ctx, tagged); err != nil {
		return err
	}
	logger.Info("indexed", "rows", len(points), "table", indexTable, "res", indexRes)
	return nil
}

func runSnap(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	// Resolution is irrelevant for snapping; the store reads cells as stored.
	store, err := gridutil.NewStore(db, snapTable, 0)
	if err != nil {
		return err
	}
	hits, err := store.Snap(cmd.Context(), snapLon, snapLat, snapK)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Printf("%d\t%.1f\t%d\n", uint64(h.Cell), h.Meters, h.Count)
	}
	return nil
}

// readPointsCSV loads id,lon,lat records. A first record whose lon column
// does not parse as a number is treated as a header and skipped.
func readPointsCSV(path string) ([]gridutil.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	var points []gridutil.Point
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		lon, lonErr := strconv.ParseFloat(rec[1], 64)
		lat, latErr := strconv.ParseFloat(rec[2], 64)
		if lonErr != nil || latErr != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("%s: record %d: bad coordinate %q,%q", path, line, rec[1], rec[2])
		}
		points = append(points, gridutil.Point{ID: rec[0], Lon: lon, Lat: lat})
	}
	return points, nil
}
