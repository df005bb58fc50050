package log

import (
	"os"
	"path/filepath"
	"runtime"
)

var (
	logDir     string
	logDirOnce bool
)

// GetLogDir returns the platform-specific log directory for rulesd:
// /var/log/rulesd/ on Linux when writable, otherwise ~/.rulesd/, otherwise
// the temp directory. The directory is created if it does not exist.
func GetLogDir() string {
	if logDirOnce {
		return logDir
	}

	logDir = determineLogDir()
	logDirOnce = true

	if err := os.MkdirAll(logDir, 0755); err != nil {
		logDir = filepath.Join(os.TempDir(), "rulesd")
		_ = os.MkdirAll(logDir, 0755)
	}

	return logDir
}

func determineLogDir() string {
	switch runtime.GOOS {
	case "linux":
		varLogDir := "/var/log/rulesd"
		if err := os.MkdirAll(varLogDir, 0755); err == nil {
			testFile := filepath.Join(varLogDir, ".write_test")
			if f, err := os.Create(testFile); err == nil {
				_ = f.Close()
				_ = os.Remove(testFile)
				return varLogDir
			}
		}
		return getUserLogDir()
	default:
		return getUserLogDir()
	}
}

func getUserLogDir() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userLogDir := filepath.Join(homeDir, ".rulesd")
		if err := os.MkdirAll(userLogDir, 0755); err == nil {
			return userLogDir
		}
	}

	return filepath.Join(os.TempDir(), "rulesd")
}

// GetLogFilePath returns the full path to the main log file.
func GetLogFilePath() string {
	return filepath.Join(GetLogDir(), "rulesd.log")
}
