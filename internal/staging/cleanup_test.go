package staging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bytesub/internal/logging"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if age > 0 {
		ts := time.Now().Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOnlyArtifacts(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "temp_talk.wav")
	download := filepath.Join(dir, DownloadFileName)
	partial := filepath.Join(dir, "downloaded_media.mp4.part")
	keep := filepath.Join(dir, "notes.txt")
	lock := filepath.Join(dir, LockFileName)
	for _, p := range []string{wav, download, partial, keep, lock} {
		touch(t, p, 0)
	}

	result := CleanStale(context.Background(), dir, 0, logging.NewNop())
	if len(result.Removed) != 3 {
		t.Fatalf("expected 3 removed, got %v", result.Removed)
	}
	for _, p := range []string{wav, download, partial} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s removed", p)
		}
	}
	for _, p := range []string{keep, lock} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s kept: %v", p, err)
		}
	}
}

func TestCleanStaleHonoursMaxAge(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "temp_old.wav")
	recent := filepath.Join(dir, "temp_recent.wav")
	touch(t, old, 2*time.Hour)
	touch(t, recent, 0)

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("expected only %s removed, got %v", old, result.Removed)
	}
	if _, err := os.Stat(recent); err != nil {
		t.Fatalf("recent artifact should remain: %v", err)
	}
}

func TestListArtifacts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "temp_a.wav"), 0)
	touch(t, filepath.Join(dir, "other.wav"), 0)

	items, err := ListArtifacts(dir)
	if err != nil {
		t.Fatalf("ListArtifacts: %v", err)
	}
	if len(items) != 1 || items[0].Name != "temp_a.wav" {
		t.Fatalf("unexpected artifacts: %#v", items)
	}
}

func TestLockIsExclusive(t *testing.T) {
	dir := t.TempDir()
	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	held, err := Held(dir)
	if err != nil || !held {
		t.Fatalf("expected lock held, got %v err=%v", held, err)
	}
	if _, err := Acquire(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	second, err := Acquire(dir)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	_ = second.Release()
}
