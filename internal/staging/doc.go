// Package staging owns the work directory: the single-instance lock and
// removal of transient artifacts left behind by interrupted runs.
package staging
