package ptt

import (
	"errors"
	"flag"
	"slices"
	"testing"
)

func defaultTestConfig() *Config {
	return &Config{Values: map[string]string{}, DefaultMaxUseCombinations: 16}
}

func TestParseArgsValid(t *testing.T) {
	opts, err := parseArgs([]string{
		"--package", "=app-misc/foo-1.2.3",
		"--test-feature-scope", "always",
		"--use-flags-scope", "global",
		"--max-use-combinations", "4",
		"--report", "/tmp/report.json",
		"--", "--jobs", "4",
	}, defaultTestConfig())
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}

	if opts.Atom != "=app-misc/foo-1.2.3" {
		t.Errorf("Atom = %q", opts.Atom)
	}
	if opts.TestFeatureScope != "always" || opts.UseFlagsScope != "global" {
		t.Errorf("scopes = %q/%q", opts.TestFeatureScope, opts.UseFlagsScope)
	}
	if opts.MaxUseCombinations != 4 {
		t.Errorf("MaxUseCombinations = %d", opts.MaxUseCombinations)
	}
	if !slices.Equal(opts.ExtraArgs, []string{"--jobs", "4"}) {
		t.Errorf("ExtraArgs = %v", opts.ExtraArgs)
	}
}

func TestParseArgsDefaults(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.DefaultMaxUseCombinations = 8

	opts, err := parseArgs([]string{"--package", "=app-misc/foo-1.2.3"}, cfg)
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if opts.MaxUseCombinations != 8 {
		t.Errorf("MaxUseCombinations = %d, want config default 8", opts.MaxUseCombinations)
	}
	if opts.UseFlagsScope != "local" || opts.TestFeatureScope != "once" {
		t.Errorf("scope defaults = %q/%q", opts.UseFlagsScope, opts.TestFeatureScope)
	}
}

func TestParseArgsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		argv []string
	}{
		{"unknown flag", []string{"--package", "=app-misc/foo-1.2.3", "--no-such-option"}},
		{"non-integer max", []string{"--package", "=app-misc/foo-1.2.3", "--max-use-combinations", "lots"}},
		{"missing package", []string{"--test-feature-scope", "once"}},
		{"bad scope", []string{"--package", "=app-misc/foo-1.2.3", "--use-flags-scope", "world"}},
		{"bad test scope", []string{"--package", "=app-misc/foo-1.2.3", "--test-feature-scope", "sometimes"}},
		{"unversioned atom", []string{"--package", "app-misc/foo"}},
		{"stray positional", []string{"--package", "=app-misc/foo-1.2.3", "extra"}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := parseArgs(c.argv, defaultTestConfig())
			if err == nil {
				t.Fatal("expected an error")
			}
			// Malformed input is reported to the caller for a usage
			// message and exit 1; it must not look like a help request.
			if errors.Is(err, flag.ErrHelp) {
				t.Errorf("malformed input surfaced as help request: %v", err)
			}
		})
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := parseArgs([]string{"-h"}, defaultTestConfig())
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}

func TestParseArgsVersionSkipsValidation(t *testing.T) {
	opts, err := parseArgs([]string{"--version"}, defaultTestConfig())
	if err != nil {
		t.Fatalf("parseArgs failed: %v", err)
	}
	if !opts.ShowVersion {
		t.Error("ShowVersion not set")
	}
}
