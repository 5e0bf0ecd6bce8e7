// Package grid implements SQLite virtual tables that expose the
// list-returning cell operations as table-valued functions: a5_children,
// a5_boundary, a5_compact, and a5_uncompact. Inputs arrive through hidden
// columns constrained with equality in the WHERE clause; BestIndex pushes
// the constraints down so the tables stream rows instead of materializing
// JSON documents.
//
// Usage:
//
//	CREATE VIRTUAL TABLE children USING a5_children;
//	SELECT child FROM children WHERE parent = 1 AND res = 2;
//
// Cell lists are accepted as JSON arrays or comma-separated text, or as
// little-endian BLOBs in the cellset codec. Repeated uncompact expansions
// of the same argument are served from a shared in-memory cache keyed by
// an xxhash fingerprint of the argument.
package grid
