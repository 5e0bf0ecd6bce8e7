// Package cellset provides compact in-memory sets of cell identifiers
// backed by 64-bit roaring bitmaps. A Set supports bulk insertion of whole
// descendant ranges, set-level compaction to the minimal covering cells,
// and a content fingerprint suitable for cache keys. The package also
// carries the little-endian BLOB codec used to move cell lists through
// SQL parameters.
package cellset
