// Package connection implements the parts connection builder: it links
// disjoint polyline fragments that share a label into continuous curves.
//
// # Pipeline
//
// FindConnections runs a single pass over the input:
//
//  1. Partition: unique label values are visited in ascending order. Label 0
//     is background and never connected.
//  2. Fit: for each label with at least two vertices, the 2D coordinates and
//     part ids of that subset are handed to a Fitter, which proposes edges as
//     index pairs local to the subset.
//  3. Re-index: local pairs are translated to global vertex indices and
//     accumulated per label. Accumulators are merged once, in label order.
//  4. Compact: vertices referenced by at least one edge are gathered into a
//     new array and edges are renumbered against it.
//
// # No connections
//
// When no label produces an edge the Result carries the original vertices,
// nil edges and an all-zero label vector. This is a normal outcome, not an
// error; check Result.Found before creating output entities.
//
// # Determinism
//
// Labels are processed (or, with WithWorkers, merged) in ascending order, so
// two runs over identical input with a deterministic Fitter produce identical
// results regardless of the worker count.
//
// # Input contract
//
// The builder trusts its caller: vertices, parts and labels must share the
// same length. Input.Validate performs that check for callers that need it.
package connection
