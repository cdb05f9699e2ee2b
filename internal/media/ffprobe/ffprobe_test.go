package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{Index: 1, CodecType: "audio", SampleRate: "48000", Channels: 2},
			{Index: 2, CodecType: "audio"},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	audio, err := result.PrimaryAudio()
	if err != nil {
		t.Fatalf("PrimaryAudio: %v", err)
	}
	if audio.Index != 1 || audio.SampleRateHz() != 48000 {
		t.Fatalf("unexpected primary audio: %#v", audio)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Stream{SampleRate: "-1"}).SampleRateHz() != 0 {
		t.Fatal("expected negative sample rate to clamp to 0")
	}
}

func TestPrimaryAudioMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, err := result.PrimaryAudio(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestInspectUsesBinary(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	body := "#!/bin/sh\necho '{\"streams\":[{\"index\":0,\"codec_type\":\"audio\",\"sample_rate\":\"44100\",\"channels\":2}],\"format\":{\"duration\":\"2.5\"}}'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), script, "/tmp/input.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if result.AudioStreamCount() != 1 || result.DurationSeconds() != 2.5 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestInspectReportsFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'Invalid data found' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if _, err := Inspect(context.Background(), script, "/tmp/bad.mp4"); err == nil {
		t.Fatal("expected error from failing ffprobe")
	}
	if _, err := Inspect(context.Background(), script, " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
