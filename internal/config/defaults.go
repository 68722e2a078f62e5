package config

const (
	defaultPrefix               = "$"
	defaultVideosDir            = "~/.local/share/streambot/videos"
	defaultDBPath               = "~/.local/share/streambot/streambot.db"
	defaultLogDir               = "~/.local/share/streambot/logs"
	defaultStatusBind           = "127.0.0.1:8080"
	defaultPromptTimeoutSeconds = 30
	defaultCategoriesPerPage    = 8
	defaultVideosPerPage        = 8
	defaultEpisodesPerPage      = 8
	defaultSearchPerPage        = 6
	defaultFFmpegPath           = "ffmpeg"
	defaultOutputFormat         = "mpegts"
	defaultEncoder              = "libx264"
	defaultStreamWidth          = 1280
	defaultStreamHeight         = 720
	defaultStreamFPS            = 30
	defaultBitrateKbps          = 2000
	defaultMaxBitrateKbps       = 2500
	defaultH26xPreset           = "ultrafast"
	defaultStatusUsername       = "admin"
	defaultNotifyTimeoutSeconds = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Discord: Discord{
			Prefix: defaultPrefix,
		},
		Paths: Paths{
			VideosDir:  defaultVideosDir,
			DBPath:     defaultDBPath,
			LogDir:     defaultLogDir,
			StatusBind: defaultStatusBind,
		},
		Navigation: Navigation{
			PromptTimeoutSeconds: defaultPromptTimeoutSeconds,
			CategoriesPerPage:    defaultCategoriesPerPage,
			VideosPerPage:        defaultVideosPerPage,
			EpisodesPerPage:      defaultEpisodesPerPage,
			SearchPerPage:        defaultSearchPerPage,
		},
		Stream: Stream{
			FFmpegPath:     defaultFFmpegPath,
			OutputFormat:   defaultOutputFormat,
			Encoder:        defaultEncoder,
			Width:          defaultStreamWidth,
			Height:         defaultStreamHeight,
			FPS:            defaultStreamFPS,
			BitrateKbps:    defaultBitrateKbps,
			MaxBitrateKbps: defaultMaxBitrateKbps,
			H26xPreset:     defaultH26xPreset,
		},
		Status: Status{
			Username: defaultStatusUsername,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
