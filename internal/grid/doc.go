// Package grid models regular 2D grids of cell values and loads them from
// JSON grid documents or raster images.
package grid
