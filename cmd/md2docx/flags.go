package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all parsed command-line flags.
type cliFlags struct {
	config       string
	outDir       string
	cacheDir     string
	title        string
	renderCmd    string
	workers      int
	timeout      time.Duration
	codeFallback bool
	verbose      bool
	quiet        bool
	showVersion  bool
	positional   []string
}

// parseFlags parses command-line arguments into cliFlags.
func parseFlags(args []string) (*cliFlags, error) {
	fs := flag.NewFlagSet("md2docx", flag.ContinueOnError)

	f := &cliFlags{}
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.outDir, "out-dir", "o", "", "output directory (default: next to input)")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "diagram render cache directory (persists across runs)")
	fs.StringVar(&f.title, "title", "", "override the document title used in headers")
	fs.StringVar(&f.renderCmd, "render-cmd", "", "external diagram renderer command (default: mmdc)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel conversions (0 = auto)")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-diagram render timeout (0 = default 30s)")
	fs.BoolVar(&f.codeFallback, "allow-code-fallback", false, "emit diagram sources as code blocks when the renderer is missing")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose logging")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "errors only")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Println("usage: md2docx [flags] <input.md|input-dir> [output.docx]")
		fmt.Println()
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	f.positional = fs.Args()
	return f, nil
}
