package ptt

import (
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
)

// RunRecord is the outcome of one build/test run. Records are append-only:
// created once per run, never mutated, emitted to the report in execution
// order.
type RunRecord struct {
	ExitCode    int      `json:"exit_code"`
	Flags       []string `json:"flags"`
	Log         string   `json:"log,omitempty"`
	LogDigest   string   `json:"log_blake3,omitempty"`
	TestFeature bool     `json:"test_feature"`
}

// composeFeatures returns the run's environment with the safety feature set
// appended to FEATURES (plus the test feature when requested). An inherited
// FEATURES value is extended, never replaced: the variable is cumulative and
// clobbering it could silently drop site-wide settings. The second return
// value reports whether the test feature ended up in the composed set,
// which can be true even when enableTests is false if the caller's
// environment already carries it.
func composeFeatures(env []string, enableTests bool) ([]string, bool) {
	features := safetyFeatures
	if enableTests {
		features = features + " test"
	}

	out := make([]string, 0, len(env)+1)
	var composed string
	for _, e := range env {
		if val, ok := strings.CutPrefix(e, "FEATURES="); ok {
			composed = val + " " + features
			continue
		}
		out = append(out, e)
	}
	if composed == "" {
		composed = features
	}
	out = append(out, "FEATURES="+composed)

	return out, slices.Contains(strings.Fields(composed), "test")
}

// runTesting performs a single build/test attempt of atom under the given
// flag combination and returns its record. A non-zero exit code from the
// build command is a legitimate outcome, not an error; errors are reserved
// for setup failures (bad atom, overlay I/O) and for the command being
// unrunnable or aborted.
func runTesting(execCtx *Executor, env []string, atom, scope string, flags []string, enableTests bool, extraArgs []string, pass int) (RunRecord, error) {
	cp, err := baseName(atom)
	if err != nil {
		return RunRecord{}, err
	}

	// Exclude prebuilt binaries for the package under test: only a fresh
	// source build exercises the flag combination. Autounmask stays off so
	// unresolved dependencies fail loudly instead of being papered over.
	args := []string{
		"--verbose", "y",
		"--autounmask", "n",
		"--usepkg-exclude", cp,
	}
	args = append(args, extraArgs...)
	args = append(args, atom)

	runEnv, testFeature := composeFeatures(env, enableTests)

	record := RunRecord{
		Flags:       append([]string{}, flags...),
		TestFeature: testFeature,
	}

	cmd := exec.Command(emergeBinary, args...)
	cmd.Env = runEnv

	var lg *runLog
	logFinished := false
	if logDir != "" {
		lg, err = startRunLog(atom, pass)
		if err != nil {
			return RunRecord{}, err
		}
		// The raw log only survives until finish compresses it; on any
		// earlier error return it would be an orphaned empty file.
		defer func() {
			if !logFinished {
				lg.abort()
			}
		}()
		cmd.Stdout = lg.file
		cmd.Stderr = lg.file
	}

	if len(flags) > 0 {
		ov, err := acquireOverlay("package.use")
		if err != nil {
			return RunRecord{}, err
		}
		defer ov.Release()

		selector := atom
		if scope == "global" {
			selector = "*/*"
		}
		if err := ov.WriteLine(selector + " " + strings.Join(flags, " ")); err != nil {
			return RunRecord{}, err
		}
		if err := ov.Flush(); err != nil {
			return RunRecord{}, err
		}
	}

	runErr := execCtx.Run(cmd)
	if logDir == "" {
		fmt.Println()
	}

	switch {
	case runErr == nil:
		record.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return RunRecord{}, runErr
		}
		record.ExitCode = exitErr.ExitCode()
	}

	if lg != nil {
		logFinished = true
		logPath, digest, err := lg.finish()
		if err != nil {
			cPrintf(colWarn, "Warning: failed to finalize build log: %v\n", err)
		} else {
			record.Log = logPath
			record.LogDigest = digest
		}
	}

	return record, nil
}
