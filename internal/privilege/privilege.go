// Package privilege tells whether the process can be expected to write
// system files, so permission failures can carry a useful hint.
package privilege

import (
	"errors"
	"io/fs"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/process"
)

const hint = "re-run with elevated privileges (e.g. sudo)"

// Elevated reports whether the current process runs with an effective uid
// of 0. It returns false when this cannot be determined, including on
// Windows.
func Elevated() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return false
	}
	uids, err := proc.Uids()
	if err != nil || len(uids) == 0 {
		return false
	}
	return effectiveUID(uids) == 0
}

// effectiveUID picks the effective id out of the [real, effective, saved,
// filesystem] list gopsutil returns.
func effectiveUID(uids []int32) int32 {
	if len(uids) > 1 {
		return uids[1]
	}
	return uids[0]
}

// Hint returns advice for err when it was caused by missing permissions
// and the process is not already elevated, or "" otherwise.
func Hint(err error) string {
	return hintFor(err, Elevated)
}

func hintFor(err error, elevated func() bool) string {
	if err == nil || !errors.Is(err, fs.ErrPermission) {
		return ""
	}
	if elevated() {
		return ""
	}
	return hint
}
