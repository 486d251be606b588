// Package workspace reads and writes the curves the drivers work on.
//
// Curves are stored as GeoJSON FeatureCollections of LineString and
// MultiLineString features. Positions are 2D; elevations travel in a "z"
// property nested like the feature's lines, and other numeric properties are
// read as per-vertex data channels.
//
// A Monitor copies every written file into a directory watched by another
// application, under a unique name.
package workspace
