package vchat

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName    = "vchat"
	DefaultConfigName = "config"
	DefaultLogName    = "vchat.log"
)

var (
	// DefaultConfigPath is the per-user directory searched for config.yaml.
	DefaultConfigPath = userDir(os.UserConfigDir)
	// DefaultCacheDir holds the log file when the TUI owns the terminal.
	DefaultCacheDir = userDir(os.UserCacheDir)
	DefaultLogFile  = filepath.Join(DefaultCacheDir, DefaultLogName)
)

func userDir(base func() (string, error)) string {
	dir, err := base()
	if err != nil || dir == "" {
		return filepath.Join(".", "."+DefaultAppName)
	}
	return filepath.Join(dir, DefaultAppName)
}
