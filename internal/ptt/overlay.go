package ptt

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// overlay is a temporary directive file dropped into one of the package
// manager's configuration subdirectories (package.use, package.unmask,
// package.accept_keywords). The package manager picks it up like any other
// file in the directory; removing it on Release restores the previous
// behavior. Only one logical operation may hold overlays against a given
// configuration root at a time; the hazard is cross-process, so no in-process
// locking is attempted here.
type overlay struct {
	file *os.File
	path string
}

// acquireOverlay creates a uniquely named overlay file inside
// <configroot>/<category>. The directory itself must already exist: this
// tool manages files in the package manager's configuration, never the
// layout of the configuration itself.
func acquireOverlay(category string) (*overlay, error) {
	dir := filepath.Join(portageConfigRoot, category)

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("the location %s needs to exist and be a directory", dir)
	}

	f, err := os.CreateTemp(dir, "zzz_pkg_testing_tool_")
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay in %s: %w", dir, err)
	}

	// CreateTemp makes the file 0600, but the package manager may read its
	// configuration as a different user. Give the file the same mode a
	// regular configuration file would get under the current umask.
	umask := unix.Umask(0)
	unix.Umask(umask)
	if err := os.Chmod(f.Name(), os.FileMode(0o644&^umask)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("failed to chmod overlay %s: %w", f.Name(), err)
	}

	debugf("acquired overlay %s\n", f.Name())
	return &overlay{file: f, path: f.Name()}, nil
}

// WriteLine appends one directive line to the overlay.
func (o *overlay) WriteLine(line string) error {
	if _, err := fmt.Fprintln(o.file, line); err != nil {
		return fmt.Errorf("failed to write overlay %s: %w", o.path, err)
	}
	return nil
}

// Flush syncs the overlay to disk. Must be called before any external
// process is expected to see the directives.
func (o *overlay) Flush() error {
	if err := o.file.Sync(); err != nil {
		return fmt.Errorf("failed to flush overlay %s: %w", o.path, err)
	}
	return nil
}

// Release removes the overlay. Cleanup is best effort: a follow-up run only
// needs the file gone or recreated fresh, so a failed removal is logged and
// swallowed rather than escalated.
func (o *overlay) Release() {
	o.file.Close()
	if err := os.Remove(o.path); err != nil && !os.IsNotExist(err) {
		cPrintf(colWarn, "Warning: failed to remove overlay %s: %v\n", o.path, err)
		return
	}
	debugf("released overlay %s\n", o.path)
}
