// Package preflight verifies the environment before a batch starts: work and
// output directories must be writable and the external tools installed.
package preflight
