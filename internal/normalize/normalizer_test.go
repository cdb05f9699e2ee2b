package normalize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"bytesub/internal/logging"
	"bytesub/internal/media/ffprobe"
	"bytesub/internal/services"
	"bytesub/internal/testsupport"
)

func audioProbe(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio"}}}, nil
}

// wavRunner emulates ffmpeg by writing a WAV of the given format to the
// final argument.
func wavRunner(t *testing.T, sampleRate, channels int, seen *[]string) CommandRunner {
	return func(_ context.Context, name string, args ...string) error {
		if seen != nil {
			*seen = append([]string{name}, args...)
		}
		testsupport.WriteWAV(t, args[len(args)-1], sampleRate, channels, nil)
		return nil
	}
}

func TestWithAudioProducesAndRemovesNormalizedFile(t *testing.T) {
	workDir := t.TempDir()
	var seen []string
	n := New("ffmpeg", "ffprobe", workDir, logging.NewNop(),
		WithProbe(audioProbe),
		WithCommandRunner(wavRunner(t, SampleRateHz, Channels, &seen)),
	)

	var got Audio
	err := n.WithAudio(context.Background(), "/media/My Clip.mp4", func(a Audio) error {
		got = a
		if _, err := os.Stat(a.Path); err != nil {
			t.Fatalf("normalized audio should exist inside callback: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithAudio: %v", err)
	}

	wantPath := filepath.Join(workDir, "temp_My Clip.wav")
	if got.Path != wantPath {
		t.Fatalf("unexpected path %q, want %q", got.Path, wantPath)
	}
	if got.SampleRateHz != 16000 || got.Channels != 1 || got.Duration != time.Second {
		t.Fatalf("unexpected audio %#v", got)
	}
	if _, err := os.Stat(wantPath); !os.IsNotExist(err) {
		t.Fatal("normalized audio must be removed after the callback")
	}
	for _, want := range []string{"-y", "-vn", "pcm_s16le"} {
		if !slices.Contains(seen, want) {
			t.Errorf("expected ffmpeg arg %q in %v", want, seen)
		}
	}
}

func TestVerifyDurationExcludesHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "half.wav")
	testsupport.WriteWAV(t, path, SampleRateHz, Channels, make([]int, SampleRateHz/2))
	got, err := verify(path)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Duration != 500*time.Millisecond {
		t.Fatalf("duration = %v, want 500ms", got.Duration)
	}
}

func TestPCMDuration(t *testing.T) {
	tests := []struct {
		bytes, rate, chans, bits int
		want                     time.Duration
	}{
		{32000, 16000, 1, 16, time.Second},
		{0, 16000, 1, 16, 0},
		{176400, 44100, 2, 16, time.Second},
		{100, 0, 1, 16, 0},
	}
	for _, tt := range tests {
		if got := pcmDuration(tt.bytes, tt.rate, tt.chans, tt.bits); got != tt.want {
			t.Errorf("pcmDuration(%d, %d, %d, %d) = %v, want %v", tt.bytes, tt.rate, tt.chans, tt.bits, got, tt.want)
		}
	}
}

func TestWithAudioRemovesFileWhenCallbackFails(t *testing.T) {
	workDir := t.TempDir()
	n := New("", "", workDir, logging.NewNop(),
		WithProbe(audioProbe),
		WithCommandRunner(wavRunner(t, SampleRateHz, Channels, nil)),
	)
	boom := errors.New("engine failed")
	err := n.WithAudio(context.Background(), "/media/a.mp4", func(Audio) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	assertEmpty(t, workDir)
}

func TestWithAudioRemovesFileWhenCallbackPanics(t *testing.T) {
	workDir := t.TempDir()
	n := New("", "", workDir, logging.NewNop(),
		WithProbe(audioProbe),
		WithCommandRunner(wavRunner(t, SampleRateHz, Channels, nil)),
	)
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = n.WithAudio(context.Background(), "/media/a.mp4", func(Audio) error { panic("boom") })
	}()
	assertEmpty(t, workDir)
}

func TestWithAudioDecodeFailures(t *testing.T) {
	tests := []struct {
		name   string
		probe  ProbeFunc
		runner CommandRunner
	}{
		{
			name: "probe error",
			probe: func(context.Context, string, string) (ffprobe.Result, error) {
				return ffprobe.Result{}, errors.New("invalid data")
			},
		},
		{
			name: "no audio stream",
			probe: func(context.Context, string, string) (ffprobe.Result, error) {
				return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil
			},
		},
		{
			name:  "ffmpeg fails after partial write",
			probe: audioProbe,
			runner: func(_ context.Context, _ string, args ...string) error {
				_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
				return errors.New("exit status 1")
			},
		},
		{
			name:  "wrong sample rate",
			probe: audioProbe,
			runner: func(_ context.Context, _ string, args ...string) error {
				testsupport.WriteWAV(t, args[len(args)-1], 44100, 2, nil)
				return nil
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workDir := t.TempDir()
			opts := []Option{WithProbe(tt.probe)}
			if tt.runner != nil {
				opts = append(opts, WithCommandRunner(tt.runner))
			} else {
				opts = append(opts, WithCommandRunner(func(context.Context, string, ...string) error {
					t.Fatal("ffmpeg must not run")
					return nil
				}))
			}
			n := New("", "", workDir, logging.NewNop(), opts...)

			called := false
			err := n.WithAudio(context.Background(), "/media/broken.mp4", func(Audio) error {
				called = true
				return nil
			})
			if !errors.Is(err, services.ErrMediaDecode) {
				t.Fatalf("expected media decode error, got %v", err)
			}
			details, ok := services.Details(err)
			if !ok || details.Path != "/media/broken.mp4" {
				t.Fatalf("expected error to carry source path, got %#v", details)
			}
			if called {
				t.Fatal("callback must not run on decode failure")
			}
			assertEmpty(t, workDir)
		})
	}
}

func assertEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected %s empty, found %d entries", dir, len(entries))
	}
}
