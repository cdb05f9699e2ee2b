// Package fileutil holds filesystem helpers for writing outputs atomically and
// relocating retained downloads.
package fileutil
