package whisperx

// Config captures runtime settings for WhisperX invocations.
type Config struct {
	// Binary is the uvx launcher used to run WhisperX.
	Binary string
	// Model is the WhisperX model profile (e.g. "medium", "large-v3").
	Model string
	// BeamSize is passed to the decoder; zero uses DefaultBeamSize.
	BeamSize    int
	CUDAEnabled bool
	// VADMethod selects voice activity detection ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token required by pyannote VAD.
	HFToken string
	// ScratchRoot is where per-call output directories are created. Empty
	// uses the system temp directory.
	ScratchRoot string
}

// WhisperX invocation constants.
const (
	DefaultModel      = "medium"
	DefaultBeamSize   = 5
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
	UVXCommand        = "uvx"
)
