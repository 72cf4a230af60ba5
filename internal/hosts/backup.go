package hosts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gajzzs/webblocker/internal/crypto"
	"github.com/sirupsen/logrus"
)

// BackupPolicy controls when the editor copies the original file aside
// before rewriting it.
type BackupPolicy string

const (
	// BackupAlways writes a fresh backup before every change, replacing
	// the previous one. It is what the zero value means.
	BackupAlways BackupPolicy = "always"
	// BackupOnce keeps the first backup ever written and never replaces it.
	BackupOnce BackupPolicy = "once"
	// BackupNever edits without a safety copy.
	BackupNever BackupPolicy = "never"
)

func ParseBackupPolicy(s string) (BackupPolicy, error) {
	switch p := BackupPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", BackupAlways:
		return BackupAlways, nil
	case BackupOnce, BackupNever:
		return p, nil
	default:
		return "", fmt.Errorf("unknown backup policy %q (want always, once or never)", s)
	}
}

// backup stores original next to path according to the policy and returns
// the backup path, or "" when no backup was written. An existing backup
// that already holds original is left in place.
func (e *Editor) backup(path string, original []byte) (string, error) {
	bak := BackupPath(path)
	if e.opts.Backup == BackupNever {
		e.log.Debug("Backups disabled, editing without a safety copy")
		return "", nil
	}

	want := crypto.Digest(original)
	logger := e.log.WithFields(logrus.Fields{
		"backup": bak,
		"digest": crypto.HexDigest(original),
	})
	have, err := crypto.FileDigest(e.fs, bak)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("failed to check %s: %w", bak, err)
	case e.opts.Backup == BackupOnce:
		logger.WithField("current", bytes.Equal(have, want)).Info("Keeping existing backup")
		return "", nil
	case bytes.Equal(have, want):
		logger.Info("Backup already up to date")
		return bak, nil
	}

	if err := writeFileAtomic(e.fs, bak, original, fileMode(e.fs, path, 0644)); err != nil {
		return "", err
	}
	have, err = crypto.FileDigest(e.fs, bak)
	if err != nil {
		return "", fmt.Errorf("failed to verify %s: %w", bak, err)
	}
	if !bytes.Equal(have, want) {
		return "", fmt.Errorf("%s does not match the original content", bak)
	}

	logger.Info("Backup created")
	return bak, nil
}
