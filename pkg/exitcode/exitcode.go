// Package exitcode provides standardized exit codes for assetlift
package exitcode

// Exit codes for the assetlift CLI
const (
	Success         = 0
	GeneralError    = 1
	ConfigError     = 2
	LoadError       = 3
	PathEscapeError = 4
	FileSystemError = 5
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case LoadError:
		return "Assembly load error"
	case PathEscapeError:
		return "Output path escape"
	case FileSystemError:
		return "File system error"
	default:
		return "Unknown error"
	}
}
