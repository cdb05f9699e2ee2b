package preflight

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that path is an existing directory the
// process can list, create files in and remove files from. The detail of a
// passing check reports the free space on its filesystem.
func CheckDirectoryAccess(name, path string) Result {
	fail := func(format string, args ...any) Result {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
	}
	if path == "" {
		return Result{Name: name, Detail: "(error: not configured)"}
	}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fail("does not exist")
	case err != nil:
		return fail("stat: %v", err)
	case !info.IsDir():
		return fail("is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fail("insufficient permissions: %v", err)
	}

	detail := path + " (read/write ok"
	if free, ok := freeBytes(path); ok {
		detail += ", " + formatBytes(free) + " free"
	}
	return Result{Name: name, Passed: true, Detail: detail + ")"}
}

func freeBytes(path string) (uint64, bool) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, false
	}
	return st.Bavail * uint64(st.Bsize), true
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
