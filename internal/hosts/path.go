package hosts

import (
	"os"
	"path/filepath"
	"runtime"
)

const backupSuffix = ".webblocker.bak"

// DefaultPath returns the system hosts file location for the running OS.
func DefaultPath() string {
	if runtime.GOOS == "windows" {
		windir := os.Getenv("SystemRoot")
		if windir == "" {
			windir = `C:\Windows`
		}
		return filepath.Join(windir, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// BackupPath returns the sibling file that holds the pre-edit copy of path.
func BackupPath(path string) string {
	return path + backupSuffix
}
