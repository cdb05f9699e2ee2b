package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Destination is where one item's outputs are written.
type Destination struct {
	// Name is the base name actually used, after any disambiguation.
	Name     string
	SRTPath  string
	TextPath string
}

// DestinationChooser picks output paths for a derived name. It is consulted
// once per successful item and may reject the item by returning an error.
type DestinationChooser interface {
	Choose(name string) (Destination, error)
}

// ChooserFunc adapts a function into a DestinationChooser.
type ChooserFunc func(name string) (Destination, error)

// Choose implements DestinationChooser.
func (f ChooserFunc) Choose(name string) (Destination, error) {
	return f(name)
}

// OutputFolder writes <dir>/<name>.srt and <dir>/<name>.txt. Names already
// handed out in this batch get a _2, _3, ... suffix, as do names whose files
// already exist unless overwrite is set.
type OutputFolder struct {
	dir       string
	overwrite bool

	mu      sync.Mutex
	claimed map[string]struct{}
}

// NewOutputFolder constructs a chooser for dir. Use one per batch.
func NewOutputFolder(dir string, overwrite bool) *OutputFolder {
	return &OutputFolder{
		dir:       dir,
		overwrite: overwrite,
		claimed:   make(map[string]struct{}),
	}
}

const maxSuffix = 10000

// Choose implements DestinationChooser.
func (o *OutputFolder) Choose(name string) (Destination, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Destination{}, errors.New("empty output name")
	}
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return Destination{}, fmt.Errorf("create output folder: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for n := 1; n <= maxSuffix; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		key := strings.ToLower(candidate)
		if _, taken := o.claimed[key]; taken {
			continue
		}
		dest := Destination{
			Name:     candidate,
			SRTPath:  filepath.Join(o.dir, candidate+".srt"),
			TextPath: filepath.Join(o.dir, candidate+".txt"),
		}
		if !o.overwrite && (exists(dest.SRTPath) || exists(dest.TextPath)) {
			continue
		}
		o.claimed[key] = struct{}{}
		return dest, nil
	}
	return Destination{}, fmt.Errorf("no free output name for %q", name)
}

// uniquePath returns <dir>/<base><ext>, suffixed _2, _3, ... until unused.
func uniquePath(dir, base, ext string) (string, error) {
	for n := 1; n <= maxSuffix; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d", base, n)
		}
		path := filepath.Join(dir, candidate+ext)
		if !exists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("no free file name for %q", base)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
