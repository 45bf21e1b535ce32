package ptt

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// printHelp prints the options table
func printHelp() {
	colSuccess.Println("Usage: pkg-testing-tool --package <atom> [options] [-- extra emerge args]")
	colSuccess.Println("Builds and tests a single package atom across USE flag combinations.")
	fmt.Println()
	color.Info.Println("Required:")

	type optInfo struct {
		Opt  string
		Arg  string
		Desc string
	}
	required := []optInfo{
		{"--package", "<atom>", "Valid package atom, like '=app-category/foo-1.2.3'."},
	}
	optional := []optInfo{
		{"--append-required-use", "<expr>", "Append REQUIRED_USE entries, useful for blacklisting flags, like '!systemd !libressl'."},
		{"--max-use-combinations", "<n>", "Generate up to N combinations of USE flags out of those which pass REQUIRED_USE. Default: 16."},
		{"--use-flags-scope", "<local|global>", "Local sets USE flags for the atom, global sets flags for */*. Default: local."},
		{"--test-feature-scope", "<once|always|never>", "Enable FEATURES=test once (default USE flags), always, or never. Default: once."},
		{"--report", "<path>", "Save report in JSON format under specified path."},
		{"--log-dir", "<dir>", "Capture each run's build output to xz-compressed logs under this directory."},
		{"--version", "", "Version information."},
	}

	// Longest usage string decides the width of the first column.
	maxLen := 0
	for _, o := range append(append([]optInfo{}, required...), optional...) {
		length := len(o.Opt) + len(o.Arg)
		if o.Arg != "" {
			length++
		}
		if length > maxLen {
			maxLen = length
		}
	}
	columnWidth := maxLen + 4

	printOpts := func(opts []optInfo) {
		for _, o := range opts {
			usage := "  " + o.Opt
			if o.Arg != "" {
				usage += " " + o.Arg
			}

			fmt.Print("  ")
			color.Bold.Print(o.Opt)
			if o.Arg != "" {
				fmt.Print(" ")
				color.Cyan.Print(o.Arg)
			}
			pad := columnWidth - len(usage)
			if pad < 1 {
				pad = 1
			}
			fmt.Print(strings.Repeat(" ", pad))
			color.Info.Println(o.Desc)
		}
	}

	printOpts(required)
	fmt.Println()
	color.Info.Println("Optional:")
	printOpts(optional)
	fmt.Println()
	color.Info.Println("Arguments after '--' are passed through to emerge.")
	fmt.Println()
}

func usageError(format string, args ...any) {
	eerror(format, args...)
	fmt.Println()
	printHelp()
	os.Exit(1)
}

// cliOptions is the parsed command line.
type cliOptions struct {
	matrixOptions
	ReportPath  string
	LogDir      string
	ShowVersion bool
}

// parseArgs parses argv (os.Args without the program name). Anything after
// a literal '--' is handed to emerge untouched. A flag.ErrHelp return means
// help was requested; any other error is malformed input.
func parseArgs(argv []string, cfg *Config) (*cliOptions, error) {
	var extraArgs []string
	if i := slices.Index(argv, "--"); i >= 0 {
		extraArgs = argv[i+1:]
		argv = argv[:i]
	}

	fs := flag.NewFlagSet("pkg-testing-tool", flag.ContinueOnError)
	// Errors are rendered by the caller; silence the FlagSet's own output.
	fs.SetOutput(io.Discard)

	var opts cliOptions
	fs.StringVar(&opts.Atom, "package", "", "package atom to test")
	fs.StringVar(&opts.AppendRequiredUse, "append-required-use", "", "extra REQUIRED_USE entries")
	fs.IntVar(&opts.MaxUseCombinations, "max-use-combinations", cfg.DefaultMaxUseCombinations, "combination sample limit")
	fs.StringVar(&opts.UseFlagsScope, "use-flags-scope", "local", "local or global")
	fs.StringVar(&opts.TestFeatureScope, "test-feature-scope", "once", "once, always or never")
	fs.StringVar(&opts.ReportPath, "report", "", "JSON report path")
	fs.StringVar(&opts.LogDir, "log-dir", logDir, "build log directory")
	fs.BoolVar(&opts.ShowVersion, "version", false, "print version")

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}
	if opts.ShowVersion {
		return &opts, nil
	}

	if fs.NArg() > 0 {
		return nil, fmt.Errorf("custom arguments that are meant to be passed to emerge are to be placed after '--'")
	}
	if opts.Atom == "" {
		return nil, fmt.Errorf("--package is required")
	}
	if opts.UseFlagsScope != "local" && opts.UseFlagsScope != "global" {
		return nil, fmt.Errorf("--use-flags-scope must be 'local' or 'global', got '%s'", opts.UseFlagsScope)
	}
	switch opts.TestFeatureScope {
	case "once", "always", "never":
	default:
		return nil, fmt.Errorf("--test-feature-scope must be 'once', 'always' or 'never', got '%s'", opts.TestFeatureScope)
	}
	if _, err := baseName(opts.Atom); err != nil {
		return nil, err
	}

	opts.ExtraArgs = extraArgs
	return &opts, nil
}

// Main is the CLI entrypoint for pkg-testing-tool.
func Main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// A signal cancels the context, which kills the running build's process
	// group; deferred overlay releases then run on the normal unwind path.
	// A second signal forces immediate exit.
	go func() {
		select {
		case sig := <-sigs:
			colArrow.Print("\n-> ")
			color.Danger.Printf("Received %v. Cancelling process gracefully\n", sig)
			cancel()

			select {
			case <-sigs:
				colArrow.Print("\n-> ")
				color.Danger.Println("Second interrupt received. Forcing immediate exit.")
				os.Exit(130)
			case <-time.After(5 * time.Second):
				colArrow.Print("\n-> ")
				color.Danger.Println("Graceful shutdown timeout. Exiting.")
				os.Exit(130)
			}
		case <-ctx.Done():
		}
	}()

	if len(os.Args) < 2 {
		printHelp()
		os.Exit(1)
	}

	// 2. CONFIGURATION
	cfg, err := loadConfig(ConfigFile)
	if err != nil {
		cPrintf(colWarn, "Warning: failed to read %s: %v\n", ConfigFile, err)
	}
	initConfig(cfg)

	// 3. ARGUMENT PARSING
	opts, err := parseArgs(os.Args[1:], cfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printHelp()
			return
		}
		usageError("%v", err)
	}
	if opts.ShowVersion {
		fmt.Printf("pkg-testing-tool %s\n", version)
		return
	}

	logDir = opts.LogDir

	// 4. MATRIX EXECUTION
	execCtx := NewExecutor(ctx)
	source := newPortageSource(execCtx)

	results, err := runMatrix(execCtx, source, opts.matrixOptions)
	if err != nil {
		edie("%v", err)
	}

	// 5. REPORT AND VERDICT
	if opts.ReportPath != "" {
		if err := writeReport(opts.ReportPath, results); err != nil {
			edie("%v", err)
		}
	}

	failed := failures(results)
	if len(failed) > 0 {
		for _, entry := range failed {
			fmt.Printf("testing failed with flags: '%s'\n", strings.Join(entry.Flags, " "))
		}
		edie("Testing of '%s' resulted in some failures.", opts.Atom)
	}
	einfo("All good.")
}
