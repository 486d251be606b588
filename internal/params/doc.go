// Package params decodes the parameter files of the curve drivers.
//
// Files are written in HCL, or in HCL's JSON syntax when the file name ends
// in .json. Optional settings are pointers so that an absent value can be
// told apart from an explicit zero and defaulted.
package params
