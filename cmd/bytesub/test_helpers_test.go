package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bytesub/internal/testsupport"
)

const uvxStub = `src=""
out=""
prev=""
for arg in "$@"; do
  case "$prev" in
    whisperx) src="$arg" ;;
    --output_dir) out="$arg" ;;
  esac
  prev="$arg"
done
base=$(basename "$src" .wav)
cat "$BYTESUB_TEST_SEGMENTS" > "$out/$base.json"
`

const ffmpegStub = `for last; do :; done
cp "$BYTESUB_TEST_WAV" "$last"
`

const ffprobeStub = `echo '{"streams":[{"index":0,"codec_type":"audio","codec_name":"aac","sample_rate":"48000","channels":2}],"format":{"duration":"1.000000","nb_streams":1}}'
`

type cliTestEnv struct {
	baseDir    string
	configPath string
	workDir    string
	outputDir  string
	inputDir   string
	binDir     string
}

// setupCLITestEnv writes a config whose tools are stub scripts that emulate
// ffprobe, ffmpeg and the WhisperX runner.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		workDir:    filepath.Join(base, "work"),
		outputDir:  filepath.Join(base, "output"),
		inputDir:   filepath.Join(base, "input"),
		binDir:     filepath.Join(base, "bin"),
	}

	testsupport.WriteScript(t, filepath.Join(env.binDir, "ffmpeg"), ffmpegStub)
	testsupport.WriteScript(t, filepath.Join(env.binDir, "ffprobe"), ffprobeStub)
	testsupport.WriteScript(t, filepath.Join(env.binDir, "uvx"), uvxStub)

	wavPath := filepath.Join(base, "fixture.wav")
	testsupport.WriteWAV(t, wavPath, 16000, 1, nil)
	t.Setenv("BYTESUB_TEST_WAV", wavPath)
	env.setSegments(t, `{"segments":[{"start":0.0,"end":1.5,"text":" Hello there world"},{"start":1.5,"end":3.25,"text":" Second line"}]}`)

	content := fmt.Sprintf(`[paths]
work_dir = %q
log_dir = %q

[output]
folder = %q

[tools]
ffmpeg = %q
ffprobe = %q
yt_dlp = %q
uvx = %q

[logging]
level = "error"
`,
		env.workDir,
		filepath.Join(base, "logs"),
		env.outputDir,
		filepath.Join(env.binDir, "ffmpeg"),
		filepath.Join(env.binDir, "ffprobe"),
		filepath.Join(env.binDir, "yt-dlp-missing"),
		filepath.Join(env.binDir, "uvx"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) setSegments(t *testing.T, payload string) {
	t.Helper()
	path := filepath.Join(e.baseDir, "segments.json")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write segments: %v", err)
	}
	t.Setenv("BYTESUB_TEST_SEGMENTS", path)
}

func (e *cliTestEnv) writeInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.inputDir, name)
	testsupport.WriteFile(t, path, 1024)
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
