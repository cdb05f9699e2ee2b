package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bytesub/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestRunAllReportsBothDirectories(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.WorkDir = t.TempDir()
	cfg.Output.Folder = filepath.Join(t.TempDir(), "missing")

	results := RunAll(&cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Output folder" {
		t.Fatalf("expected only output folder to fail, got %#v", failed)
	}
}

func TestCheckSystemDepsMarksDownloaderOptional(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.Default()
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if s.Available {
			t.Fatalf("expected %s to be unavailable with empty PATH", s.Name)
		}
		if s.Name == "yt-dlp" && !s.Optional {
			t.Fatal("expected yt-dlp to be optional")
		}
	}
}

func TestCheckDirectoryAccessReportsFreeSpace(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !strings.Contains(result.Detail, "read/write ok") || !strings.Contains(result.Detail, "free") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{in: 512, want: "512 B"},
		{in: 1536, want: "1.5 KiB"},
		{in: 5 * 1024 * 1024 * 1024, want: "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Fatalf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
