package config

const (
	defaultConfigPath    = "~/.config/bytesub/config.toml"
	projectConfigName    = "bytesub.toml"
	defaultWorkDir       = "~/.cache/bytesub/work"
	defaultLogDir        = "~/.local/share/bytesub/logs"
	defaultOutputFolder  = "."
	defaultModelProfile  = "medium"
	defaultTask          = TaskTranslate
	defaultLanguage      = "en"
	defaultBeamSize      = 5
	defaultVADMethod     = "silero"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultLogRetention  = 30
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultYTDLPBinary   = "yt-dlp"
	defaultUVXBinary     = "uvx"
)

// Engine task directives.
const (
	TaskTranslate  = "translate"
	TaskTranscribe = "transcribe"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Output: Output{
			Folder: defaultOutputFolder,
		},
		Engine: Engine{
			ModelProfile:   defaultModelProfile,
			Task:           defaultTask,
			TargetLanguage: defaultLanguage,
			BeamSize:       defaultBeamSize,
			VADMethod:      defaultVADMethod,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
			YTDLP:   defaultYTDLPBinary,
			UVX:     defaultUVXBinary,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetention,
		},
	}
}
