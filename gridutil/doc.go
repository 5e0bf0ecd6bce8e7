// Package gridutil provides a higher-level API over a cell-tagged point
// table in SQLite: schema creation, bulk coordinate upserts with cell
// derivation, compacted coverage extraction, per-ancestor aggregation and
// nearest-cell snapping. It sits on top of the a5 core and the engine
// scalar functions; the a5sql CLI's index and snap commands are thin
// wrappers around a Store.
package gridutil
