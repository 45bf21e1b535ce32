package ptt

import (
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// matrixOptions is the policy for one whole matrix operation.
type matrixOptions struct {
	Atom               string
	AppendRequiredUse  string
	MaxUseCombinations int
	UseFlagsScope      string // "local" or "global"
	TestFeatureScope   string // "once", "always" or "never"
	ExtraArgs          []string
}

// runMatrix walks the flag-combination matrix for one atom and returns the
// ordered run records. Runs are strictly sequential: every run shares the
// same configuration root, so two concurrent runs would race over directive
// files and the build sandbox.
//
// Only overlay preconditions and overlay I/O abort the matrix; failing
// builds are recorded and the walk continues.
func runMatrix(execCtx *Executor, source FlagSource, opts matrixOptions) ([]RunRecord, error) {
	// Unconditionally unmask and keyword the selected atom. Unlike the
	// per-run flag overlay these live for the whole matrix: every run
	// targets the same, possibly masked or unkeyworded, atom. No point
	// checking whether the package is masked in the first place.
	keywordsOverlay, err := acquireOverlay("package.accept_keywords")
	if err != nil {
		return nil, err
	}
	defer keywordsOverlay.Release()

	unmaskOverlay, err := acquireOverlay("package.unmask")
	if err != nil {
		return nil, err
	}
	defer unmaskOverlay.Release()

	if err := keywordsOverlay.WriteLine(opts.Atom + " **"); err != nil {
		return nil, err
	}
	if err := keywordsOverlay.Flush(); err != nil {
		return nil, err
	}
	if err := unmaskOverlay.WriteLine(opts.Atom); err != nil {
		return nil, err
	}
	if err := unmaskOverlay.Flush(); err != nil {
		return nil, err
	}

	iuse, requiredUse, err := source.PackageFlags(opts.Atom)
	if err != nil {
		return nil, err
	}
	if opts.AppendRequiredUse != "" {
		requiredUse = append(requiredUse, opts.AppendRequiredUse)
	}

	// A package with no optional flags has nothing to vary; skip sampling.
	var useCombinations [][]string
	if len(iuse) > 0 {
		useCombinations, err = source.UseCombinations(iuse, requiredUse, opts.MaxUseCombinations)
		if err != nil {
			return nil, err
		}
	}

	defaultPass := len(useCombinations) == 0 || opts.TestFeatureScope == "once"
	totalRuns := len(useCombinations)
	if defaultPass {
		totalRuns++
	}

	var bar *progressbar.ProgressBar
	if logDir != "" && term.IsTerminal(int(os.Stdout.Fd())) {
		bar = progressbar.Default(int64(totalRuns), "matrix")
	}

	env := os.Environ()
	results := make([]RunRecord, 0, totalRuns)
	pass := 0

	if len(useCombinations) > 0 {
		enableTests := opts.TestFeatureScope == "always"

		for _, flags := range useCombinations {
			pass++
			einfo("Running %d of %d build for '%s' with '%s' USE flags ...",
				pass, len(useCombinations), opts.Atom, strings.Join(flags, " "))

			record, err := runTesting(execCtx, env, opts.Atom, opts.UseFlagsScope, flags, enableTests, opts.ExtraArgs, pass)
			if err != nil {
				return results, err
			}
			results = append(results, record)
			if bar != nil {
				bar.Add(1)
			}
		}
	}

	if defaultPass {
		enableTests := opts.TestFeatureScope == "once" || opts.TestFeatureScope == "always"

		if len(useCombinations) > 0 && opts.TestFeatureScope == "once" {
			einfo("Additional run with FEATURES=test and default USE flags since test-feature-scope is set to 'once'.")
		}
		pass++
		record, err := runTesting(execCtx, env, opts.Atom, opts.UseFlagsScope, nil, enableTests, opts.ExtraArgs, pass)
		if err != nil {
			return results, err
		}
		results = append(results, record)
		if bar != nil {
			bar.Add(1)
		}
	}

	return results, nil
}

// failures filters the records that carry a non-zero exit code.
func failures(results []RunRecord) []RunRecord {
	var failed []RunRecord
	for _, entry := range results {
		if entry.ExitCode != 0 {
			failed = append(failed, entry)
		}
	}
	return failed
}
