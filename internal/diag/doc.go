// Package diag defines the diagnostic model shared by all analysis phases.
//
// Diagnostic is the central record: tri-level Severity, a stable Code (the
// equality-analysis codes like DuplicateTypedEquals keep their identifier
// spelling as the public string form), a short message, the primary span,
// and optional notes pointing at related declarations.
//
// Phases emit through a Reporter so producers stay decoupled from storage.
// BagReporter aggregates into a Bag, which supports sorting, deduplication
// and merging; DedupReporter filters repeats when several units share
// source files. The Bag is append-only: analysis of one type appends in
// insertion order, and the driver merges per-type bags in declaration order
// so the combined stream is deterministic without any cross-type locking.
//
// Package diag performs no formatting or I/O. Rendering lives in
// internal/diagfmt; orchestration in internal/driver.
package diag
