package hosts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// maxLinks bounds symlink resolution, as the kernel does with ELOOP.
const maxLinks = 40

// writeFileAtomic replaces path with data. The data goes to a temporary
// file in the same directory first, so the rename is the only change other
// readers can observe. If path is a symlink the file it points to is
// replaced and the link is kept.
func writeFileAtomic(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	path, err := resolveLink(fsys, path)
	if err != nil {
		return err
	}
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := afero.TempFile(fsys, dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			fsys.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	// Windows refuses to rename an open file.
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fsys.Chmod(tmp, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	success = true
	return nil
}

// fileMode returns the permission bits of path, or def if it does not exist.
func fileMode(fsys afero.Fs, path string, def os.FileMode) os.FileMode {
	info, err := fsys.Stat(path)
	if err != nil {
		return def
	}
	return info.Mode().Perm()
}

// resolveLink follows path through symlinks to the file they name. Paths
// that do not exist, and filesystems without symlinks, resolve to
// themselves.
func resolveLink(fsys afero.Fs, path string) (string, error) {
	lstater, ok := fsys.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := fsys.(afero.LinkReader)
	if !ok {
		return path, nil
	}

	for i := 0; i < maxLinks; i++ {
		info, _, err := lstater.LstatIfPossible(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		target, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", fmt.Errorf("failed to read link %s: %w", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}
		path = target
	}
	return "", fmt.Errorf("failed to resolve %s: too many levels of symbolic links", path)
}
