// Package hcl provides the concrete HCL implementation of the config.Loader
// interface for pipeline descriptions, and the loader for HCL environment
// files. It is responsible for all HCL file parsing, translation of blocks
// into the format-agnostic config model, and CTY-to-Go value conversion.
package hcl
