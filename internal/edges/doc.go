// Package edges detects straight edges in grids.
//
// Detection runs in two passes. A Canny pass turns the grid values into a
// one-cell-wide edge mask. A probabilistic Hough pass then traces straight
// segments through the mask, window by window, so that short features in
// large grids are not drowned out by long ones.
//
// Segments are reported both in grid cell coordinates and as a curve of
// cell-centre vertices in world coordinates.
package edges
