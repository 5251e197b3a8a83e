// Package main is the entry point for the rewrite command.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/dshills/rewrite/internal/config"
	"github.com/dshills/rewrite/internal/engine"
	"github.com/dshills/rewrite/internal/engine/tracking"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/dshills/rewrite/internal/script"
	"github.com/sirupsen/logrus"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errUsage reports bad command line arguments. The message has already
// been printed.
var errUsage = errors.New("usage")

type options struct {
	ConfigPath  string
	ScriptPath  string
	OutputPath  string
	InputPath   string
	LogLevel    string
	Check       bool
	Changes     bool
	ShowVersion bool
	ShowHelp    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	if opts.ShowHelp {
		fs.SetOutput(stdout)
		fs.Usage()
		return 0
	}
	if opts.ShowVersion {
		fmt.Fprintf(stdout, "rewrite %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return 0
	}
	if opts.ScriptPath == "" {
		fmt.Fprintf(stderr, "Error: a script is required (-script)\n")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	var opts options
	fs := flag.NewFlagSet("rewrite", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	fs.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.ScriptPath, "script", "", "Lua script that builds the edit tree")
	fs.StringVar(&opts.ScriptPath, "s", "", "Lua script that builds the edit tree (shorthand)")
	fs.StringVar(&opts.OutputPath, "o", "", "Write the result to this file instead of stdout")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides the config")
	fs.BoolVar(&opts.Check, "check", false, "Validate the edit tree without writing output")
	fs.BoolVar(&opts.Changes, "changes", false, "Print a summary of the applied changes to stderr")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&opts.ShowVersion, "v", false, "Show version information (shorthand)")
	fs.BoolVar(&opts.ShowHelp, "help", false, "Show help message")
	fs.BoolVar(&opts.ShowHelp, "h", false, "Show help message (shorthand)")

	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "rewrite - apply scripted edit trees to text\n\n")
		fmt.Fprintf(out, "Usage: rewrite [options] -script file.lua [input]\n\n")
		fmt.Fprintf(out, "Reads input from stdin when no file is given or the file is \"-\".\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  rewrite -s wrap.lua main.go           Print the rewritten file\n")
		fmt.Fprintf(out, "  rewrite -s wrap.lua -o out.go main.go Write the result to out.go\n")
		fmt.Fprintf(out, "  rewrite -s wrap.lua -check main.go    Only validate the edits\n")
		fmt.Fprintf(out, "  cat notes.txt | rewrite -s fix.lua     Rewrite stdin\n")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &options{ShowHelp: true}, fs, nil
		}
		return nil, fs, err
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "trace", "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(stderr, "Error: invalid log level %q (must be trace, debug, info, warn, or error)\n", opts.LogLevel)
			return nil, fs, errUsage
		}
	}

	switch fs.NArg() {
	case 0:
	case 1:
		opts.InputPath = fs.Arg(0)
	default:
		fmt.Fprintf(stderr, "Error: expected at most one input file, got %d\n", fs.NArg())
		return nil, fs, errUsage
	}

	return &opts, fs, nil
}

func execute(ctx context.Context, opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCfg := cfg.Logging()
	logCfg.Output = stderr
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	log := logging.New(logCfg)

	content, err := readInput(opts.InputPath, stdin)
	if err != nil {
		return err
	}

	engineOpts := append(cfg.EngineOptions(content), engine.WithLogger(log))
	var rec *tracking.Recorder
	if opts.Changes {
		rec = tracking.NewRecorder(tracking.WithChangeLog())
		engineOpts = append(engineOpts, engine.WithEditObserver(rec))
	}
	e := engine.New(engineOpts...)

	runner := script.NewRunner(
		script.WithTimeout(cfg.ScriptTimeout()),
		script.WithMaxEdits(cfg.Script.MaxEdits),
		script.WithCallStack(cfg.Script.CallStackSize),
		script.WithLogger(log),
	)

	prog, err := runner.BuildFile(ctx, e, opts.ScriptPath)
	if err != nil {
		return err
	}

	if opts.Check {
		if err := e.Check(prog.Tree); err != nil {
			return &script.Error{Script: prog.Name, Err: err}
		}
		fmt.Fprintf(stdout, "%s: %d edits, ok\n", prog.Name, prog.Edits)
		return nil
	}

	res, err := script.Apply(e, prog)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(res.Markers))
	for name := range res.Markers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := res.Markers[name]
		fields := logrus.Fields{
			"marker": name,
			"offset": r.Offset,
			"length": r.Length,
		}
		if line, err := e.LineOfOffset(r.Offset); err == nil {
			fields["line"] = line + 1
			fields["column"] = e.DisplayColumn(r.Offset) + 1
		}
		log.WithFields(fields).Info("marker")
	}

	if rec != nil {
		fmt.Fprintf(stderr, "%s\n", tracking.Summarize(rec.Changes()))
	}

	return writeOutput(opts.OutputPath, e.Text(), stdout)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

func writeOutput(path, text string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
