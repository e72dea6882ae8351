package constants

// Log file names.
const (
	// CLILogFileName is the global CLI log file, located in ~/.foundry/logs/.
	CLILogFileName = "foundry.log"
)

// Log rotation settings for the CLI log file.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is how many rotated files are kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 14

	// LogCompress controls gzip compression of rotated files.
	LogCompress = true
)

// Configuration file names.
const (
	// GlobalConfigName is the global configuration file inside FoundryHome.
	GlobalConfigName = "config.yaml"

	// ProjectConfigDir is the per-directory configuration folder.
	ProjectConfigDir = ".foundry"

	// DotEnvFileName holds provider credentials loaded once at startup.
	DotEnvFileName = ".env"
)
