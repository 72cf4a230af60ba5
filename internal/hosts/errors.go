package hosts

import (
	"errors"
	"io/fs"
)

var (
	ErrNotFound         = errors.New("hosts file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrMalformedSection = errors.New("malformed block section")
	ErrBackupFailure    = errors.New("backup failed")
	ErrInvalidRedirect  = errors.New("invalid redirect address")
	ErrNoBackup         = errors.New("no backup to restore")
)

// OpError records the editor operation and the target path that failed.
// It unwraps to both the failure kind (one of the Err* values above) and
// the underlying cause, so callers can test either with errors.Is.
type OpError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := e.Op + " " + e.Path
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func opError(op, path string, kind, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}

// ioError maps a filesystem error onto the editor's failure kinds.
func ioError(op, path string, err error) *OpError {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return opError(op, path, ErrPermissionDenied, err)
	case errors.Is(err, fs.ErrNotExist):
		return opError(op, path, ErrNotFound, err)
	default:
		return opError(op, path, nil, err)
	}
}
