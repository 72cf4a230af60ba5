package hosts

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Result describes what an operation did, or would do on a dry run.
type Result struct {
	Op         string
	Path       string
	DryRun     bool
	Changed    bool
	Before     []byte
	After      []byte
	Domains    []string
	Purged     int
	BackupPath string
}

// Diff renders the change as a unified diff. It is empty when nothing
// changed.
func (r *Result) Diff() (string, error) {
	if !r.Changed {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(r.Before)),
		B:        difflib.SplitLines(string(r.After)),
		FromFile: "a/" + r.Path,
		ToFile:   "b/" + r.Path,
		Context:  3,
	})
}
