package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bytesub/internal/services"
	"bytesub/internal/staging"
	"bytesub/internal/workflow"
)

func TestTranscribeWritesSubtitlesAndTranscript(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")

	out, _, err := runCLI(t, []string{"transcribe", input}, env.configPath)
	if err != nil {
		t.Fatalf("transcribe: %v\n%s", err, out)
	}
	requireContains(t, out, "[1/1] Processing: "+input)
	requireContains(t, out, "-- Subtitles Preview --")
	requireContains(t, out, "Done. All 1 file(s) processed.")

	srt := readFile(t, filepath.Join(env.outputDir, "Hello_there_world.srt"))
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there world\n\n2\n00:00:01,500 --> 00:00:03,250\nSecond line\n\n"
	if srt != want {
		t.Fatalf("srt mismatch\n got: %q\nwant: %q", srt, want)
	}
	txt := readFile(t, filepath.Join(env.outputDir, "Hello_there_world.txt"))
	if strings.TrimSpace(txt) != "Hello there world Second line" {
		t.Fatalf("unexpected transcript %q", txt)
	}

	artifacts, err := staging.ListArtifacts(env.workDir)
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected clean work dir, found %v", artifacts)
	}
	if _, err := os.Stat(input); err != nil {
		t.Fatalf("input must be left untouched: %v", err)
	}
}

func TestTranscribeSecondRunPicksFreeName(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")

	for i := 0; i < 2; i++ {
		if out, _, err := runCLI(t, []string{"transcribe", "--no-preview", input}, env.configPath); err != nil {
			t.Fatalf("run %d: %v\n%s", i, err, out)
		}
	}
	for _, name := range []string{"Hello_there_world.srt", "Hello_there_world_2.srt", "Hello_there_world_2.txt"} {
		if _, err := os.Stat(filepath.Join(env.outputDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestTranscribeFolderContinuesPastFailures(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeInput(t, "a.mp4")
	env.writeInput(t, "notes.txt")
	missing := filepath.Join(env.baseDir, "missing.mp4")

	out, _, err := runCLI(t, []string{"transcribe", "--no-preview", env.inputDir, missing}, env.configPath)
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	requireContains(t, out, "[1/2] Processing:")
	requireContains(t, out, "Done. 1 of 2 file(s) failed.")
	requireContains(t, out, "acquisition")
	if _, err := os.Stat(filepath.Join(env.outputDir, "Hello_there_world.srt")); err != nil {
		t.Fatalf("expected output for the good item: %v", err)
	}
}

func TestTranscribeEmptyTranscriptUsesDefaultName(t *testing.T) {
	env := setupCLITestEnv(t)
	env.setSegments(t, `{"segments":[]}`)
	input := env.writeInput(t, "silence.wav")

	if out, _, err := runCLI(t, []string{"transcribe", input}, env.configPath); err != nil {
		t.Fatalf("transcribe: %v\n%s", err, out)
	}
	if got := readFile(t, filepath.Join(env.outputDir, "output.srt")); got != "" {
		t.Fatalf("expected empty srt, got %q", got)
	}
}

func TestTranscribeRequiresInputs(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"transcribe"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no inputs") {
		t.Fatalf("expected no inputs error, got %v", err)
	}
}

func TestTranscribeURLRequiresDownloader(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"transcribe", "--url", "https://example.com/v"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "yt-dlp") {
		t.Fatalf("expected missing yt-dlp error, got %v", err)
	}
}

func TestTranscribeRejectsInvalidTask(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")
	_, _, err := runCLI(t, []string{"transcribe", "--task", "summarize", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "invalid options") {
		t.Fatalf("expected invalid options error, got %v", err)
	}
}

func TestTranscribeRefusesWhenWorkDirLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")
	if err := os.MkdirAll(env.workDir, 0o755); err != nil {
		t.Fatalf("mkdir work: %v", err)
	}
	lock, err := staging.Acquire(env.workDir)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{"transcribe", input}, env.configPath)
	if !errors.Is(err, staging.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestSummaryExit(t *testing.T) {
	tests := []struct {
		name    string
		summary workflow.Summary
		code    int
	}{
		{name: "success", summary: workflow.Summary{Total: 1, Completed: 1, Items: []workflow.ItemOutcome{{Index: 1}}}},
		{name: "failed", summary: workflow.Summary{Total: 1, Completed: 1, Items: []workflow.ItemOutcome{{Index: 1, Err: errors.New("boom")}}}, code: 1},
		{name: "cancelled", summary: workflow.Summary{Total: 2, Completed: 1, Cancelled: true}, code: 130},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := summaryExit(tt.summary)
			if tt.code == 0 {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}
			var exitErr *exitError
			if !errors.As(err, &exitErr) || exitErr.code != tt.code {
				t.Fatalf("expected exit code %d, got %v", tt.code, err)
			}
		})
	}
}

func TestTranscribeRejectsUnknownLanguage(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")
	_, _, err := runCLI(t, []string{"transcribe", "--language", "Klingon", input}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unrecognized language") {
		t.Fatalf("expected unrecognized language error, got %v", err)
	}
}

func TestTranscribeMissingToolIsExternalToolError(t *testing.T) {
	env := setupCLITestEnv(t)
	input := env.writeInput(t, "clip.mp4")
	if err := os.Remove(filepath.Join(env.binDir, "uvx")); err != nil {
		t.Fatalf("remove stub: %v", err)
	}
	_, _, err := runCLI(t, []string{"transcribe", input}, env.configPath)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	requireContains(t, err.Error(), "uvx")
}
