package cellset

import (
	"encoding/binary"
	"fmt"

	"github.com/viant/sqlite-a5/a5"
)

// EncodeCells encodes a list of cell identifiers into a BLOB representation
// suitable for SQL parameters. The encoding is a simple little-endian
// sequence of 64-bit values without a length prefix; the count is derived
// from the BLOB size on decode.
func EncodeCells(cells []a5.CellID) ([]byte, error) {
	if len(cells) == 0 {
		return nil, nil
	}
	b := make([]byte, len(cells)*8)
	for i, c := range cells {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %d", a5.ErrInvalidCell, uint64(c))
		}
		binary.LittleEndian.PutUint64(b[i*8:], uint64(c))
	}
	return b, nil
}

// DecodeCells decodes a BLOB produced by EncodeCells back into a list of
// cell identifiers.
func DecodeCells(b []byte) ([]a5.CellID, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("cellset: invalid cell blob length %d (not multiple of 8)", len(b))
	}
	cells := make([]a5.CellID, len(b)/8)
	for i := range cells {
		c := a5.CellID(binary.LittleEndian.Uint64(b[i*8:]))
		if !c.Valid() {
			return nil, fmt.Errorf("%w: %d", a5.ErrInvalidCell, uint64(c))
		}
		cells[i] = c
	}
	return cells, nil
}
