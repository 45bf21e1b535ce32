package ptt

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"lukechampine.com/blake3"
)

// runLog captures one run's build output to a file instead of the console.
// After the run the raw log is compressed and fingerprinted so a failing
// run's log can be attached to a bug report and referenced by digest.
type runLog struct {
	file    *os.File
	rawPath string
}

func sanitizeAtomForFile(atom string) string {
	s := depGetCPV(atom)
	return strings.ReplaceAll(s, "/", "_")
}

// startRunLog creates the raw log file for the given 1-based pass number.
func startRunLog(atom string, pass int) (*runLog, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
	}
	path := filepath.Join(logDir, fmt.Sprintf("%s-run-%03d.log", sanitizeAtomForFile(atom), pass))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file %s: %w", path, err)
	}
	return &runLog{file: f, rawPath: path}, nil
}

// abort closes and removes the raw log. Used when the run never happened
// so there is no output worth keeping.
func (l *runLog) abort() {
	l.file.Close()
	if err := os.Remove(l.rawPath); err != nil {
		cPrintf(colWarn, "Warning: failed to remove raw log %s: %v\n", l.rawPath, err)
	}
}

// finish closes the raw log, compresses it to <path>.xz, removes the raw
// file and returns the compressed path together with its blake3 digest.
func (l *runLog) finish() (string, string, error) {
	l.file.Close()

	src, err := os.Open(l.rawPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to reopen log %s: %w", l.rawPath, err)
	}
	defer src.Close()

	xzPath := l.rawPath + ".xz"
	dest, err := os.Create(xzPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create %s: %w", xzPath, err)
	}
	defer dest.Close()

	hasher := blake3.New(32, nil)
	xzWriter, err := xz.NewWriter(io.MultiWriter(dest, hasher))
	if err != nil {
		return "", "", err
	}
	if _, err := io.Copy(xzWriter, src); err != nil {
		xzWriter.Close()
		return "", "", fmt.Errorf("failed to compress log %s: %w", l.rawPath, err)
	}
	if err := xzWriter.Close(); err != nil {
		return "", "", err
	}

	src.Close()
	if err := os.Remove(l.rawPath); err != nil {
		cPrintf(colWarn, "Warning: failed to remove raw log %s: %v\n", l.rawPath, err)
	}

	return xzPath, hex.EncodeToString(hasher.Sum(nil)), nil
}
