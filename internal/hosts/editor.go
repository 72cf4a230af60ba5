// Package hosts edits the managed block section of a hosts file.
//
// The section is delimited by StartMarker and EndMarker lines. Everything
// outside it is passed through untouched. Files are only ever replaced as a
// whole, through a temporary file and a rename.
package hosts

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"

	"github.com/gajzzs/webblocker/internal/blocklist"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	OpBlock   = "block"
	OpUnblock = "unblock"
	OpList    = "list"
	OpRestore = "restore"
)

// Options is the configuration an Editor works with. The editor has no
// defaults of its own beyond what the zero value means.
type Options struct {
	// Redirect is the address every blocked domain is mapped to.
	// Required for Block.
	Redirect string
	// Backup selects the backup policy; empty means BackupAlways.
	Backup BackupPolicy
	// PurgeUnmarked lists host names Unblock removes from files that have
	// no block section, for entries added by hand or by older tools.
	PurgeUnmarked []string
}

type Editor struct {
	fs   afero.Fs
	opts Options
	log  *logrus.Entry
}

// NewEditor returns an Editor working on fsys. A nil logger discards all
// log output.
func NewEditor(fsys afero.Fs, opts Options, logger *logrus.Entry) (*Editor, error) {
	if opts.Redirect != "" {
		if _, err := netip.ParseAddr(opts.Redirect); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRedirect, opts.Redirect)
		}
	}
	policy, err := ParseBackupPolicy(string(opts.Backup))
	if err != nil {
		return nil, err
	}
	opts.Backup = policy

	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Editor{fs: fsys, opts: opts, log: logger}, nil
}

// Block makes the block section of path map exactly domains, in order and
// without duplicates, to the redirect address. An existing section has its
// body replaced; otherwise a new section is appended. A missing file is
// created.
func (e *Editor) Block(path string, domains []string, dryRun bool) (*Result, error) {
	if e.opts.Redirect == "" {
		return nil, opError(OpBlock, path, ErrInvalidRedirect, errors.New("no redirect address configured"))
	}
	domains, err := blocklist.Normalize(domains)
	if err != nil {
		return nil, opError(OpBlock, path, nil, err)
	}

	doc, before, existed, err := e.load(OpBlock, path)
	if err != nil {
		return nil, err
	}

	entries := entryLines(e.opts.Redirect, domains)
	if doc.hasSection() {
		e.log.WithField("entries", len(doc.body())).Debug("Replacing existing block section")
		doc.replaceBody(entries)
	} else {
		e.log.Debug("Appending new block section")
		doc.appendSection(entries)
	}

	res, err := e.commit(OpBlock, path, before, doc.bytes(), existed, dryRun)
	if err != nil {
		return nil, err
	}
	res.Domains = domains
	return res, nil
}

// Unblock removes the block section from path. A file without a section,
// or no file at all, is left alone unless PurgeUnmarked names hosts to
// remove.
func (e *Editor) Unblock(path string, dryRun bool) (*Result, error) {
	doc, before, existed, err := e.load(OpUnblock, path)
	if err != nil {
		return nil, err
	}
	if !existed {
		e.log.WithField("path", path).Info("Hosts file does not exist, nothing to unblock")
		return &Result{Op: OpUnblock, Path: path, DryRun: dryRun}, nil
	}

	purged := 0
	switch {
	case doc.hasSection():
		doc.removeSection()
	case len(e.opts.PurgeUnmarked) > 0:
		purged = doc.purgeHosts(e.opts.PurgeUnmarked)
		e.log.WithField("lines", purged).Debug("No block section, purged unmarked entries")
	default:
		e.log.WithField("path", path).Info("No block section found, nothing to unblock")
	}

	res, err := e.commit(OpUnblock, path, before, doc.bytes(), true, dryRun)
	if err != nil {
		return nil, err
	}
	res.Purged = purged
	return res, nil
}

// List returns the domains in the block section of path. It returns an
// empty list when the file or the section does not exist.
func (e *Editor) List(path string) ([]string, error) {
	doc, _, _, err := e.load(OpList, path)
	if err != nil {
		return nil, err
	}

	domains := []string{}
	for _, line := range doc.body() {
		domains = append(domains, hostnames(line)...)
	}
	return domains, nil
}

// Restore puts the content of the backup file back in place of path.
// The backup itself is kept.
func (e *Editor) Restore(path string, dryRun bool) (*Result, error) {
	bak := BackupPath(path)
	saved, err := afero.ReadFile(e.fs, bak)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, opError(OpRestore, path, ErrNoBackup, err)
	}
	if err != nil {
		return nil, ioError(OpRestore, bak, err)
	}

	before, err := afero.ReadFile(e.fs, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ioError(OpRestore, path, err)
	}
	return e.commit(OpRestore, path, before, saved, false, dryRun)
}

// load reads and parses path. A missing file loads as an empty document
// with existed set to false.
func (e *Editor) load(op, path string) (doc *document, content []byte, existed bool, err error) {
	content, err = afero.ReadFile(e.fs, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc, _ = parseDocument(nil)
		return doc, nil, false, nil
	case err != nil:
		return nil, nil, false, ioError(op, path, err)
	}

	doc, err = parseDocument(content)
	if err != nil {
		return nil, nil, false, opError(op, path, nil, err)
	}
	e.log.WithFields(logrus.Fields{
		"path":    path,
		"lines":   len(doc.lines),
		"section": doc.hasSection(),
	}).Debug("Loaded hosts file")
	return doc, content, true, nil
}

// commit persists after in place of before. Nothing is written on a dry
// run or when the content did not change. When backup is set the original
// content is saved first and a failed backup aborts the edit.
func (e *Editor) commit(op, path string, before, after []byte, backup bool, dryRun bool) (*Result, error) {
	res := &Result{
		Op:      op,
		Path:    path,
		DryRun:  dryRun,
		Before:  before,
		After:   after,
		Changed: string(before) != string(after),
	}
	logger := e.log.WithFields(logrus.Fields{"op": op, "path": path})
	if !res.Changed {
		logger.Info("Hosts file already up to date")
		return res, nil
	}
	if dryRun {
		logger.Info("Dry run, not writing changes")
		return res, nil
	}

	if backup {
		bak, err := e.backup(path, before)
		if err != nil {
			return nil, opError(op, path, ErrBackupFailure, err)
		}
		res.BackupPath = bak
	}

	if err := writeFileAtomic(e.fs, path, after, fileMode(e.fs, path, 0644)); err != nil {
		return nil, ioError(op, path, err)
	}
	logger.Info("Hosts file updated")
	return res, nil
}
