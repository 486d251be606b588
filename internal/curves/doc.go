// Package curves joins polyline fragments into continuous curves.
//
// A fragment is the ordered run of points sharing a part id. Consecutive
// points of a fragment are always linked. Fragments are then chained through
// their endpoints:
//
//  1. Endpoints: the first and last point of each fragment. A single-point
//     fragment has one endpoint that may take two connections; any other
//     endpoint takes one.
//  2. Candidates: endpoint pairs from different fragments no further apart
//     than the maximum distance.
//  3. Cost: distance * (1 + damping * bend), where bend is 0 when the
//     connection continues a fragment straight ahead and 1 when it doubles
//     back. Single-point fragments have no direction and never bend.
//  4. Chaining: candidates are accepted cheapest first while both endpoints
//     have free capacity and the two fragments are not already on the same
//     chain, so chains never close into loops.
//
// A chain is returned only when it was built from at least max(1, minEdges)
// connections. Its fragment edges and its connections are returned together
// as index pairs into the input points.
//
// With a finite maximum distance, candidates are found through a uniform
// bucket index sized to that distance. Without one every endpoint pair is a
// candidate, which is quadratic in the number of fragments; Finder.Neighbors
// bounds the number of candidates kept per endpoint.
package curves
