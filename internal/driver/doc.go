// Package driver runs the curve applications end to end: read the source,
// compute, write the result curve and publish it to the monitoring directory.
package driver
