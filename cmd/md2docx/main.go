package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	md2docx "github.com/docfoundry/md2docx"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if flags.showVersion {
		fmt.Println("md2docx", Version)
		return
	}

	log := newLogger(flags.verbose, flags.quiet)
	defer func() { _ = log.Sync() }()

	// maxprocs.Set only fails on an invalid GOMAXPROCS env value, in which
	// case runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		if flags.verbose {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}))

	cfg, err := loadConfig(flags.config)
	if err != nil {
		fmt.Fprintln(os.Stderr, describeError(err, ""))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool := md2docx.NewServicePool(md2docx.ResolvePoolSize(flags.workers), buildOptions(flags, cfg, log)...)
	defer pool.Close()

	if err := run(ctx, flags, cfg, pool, log); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err, renderCommand(flags, cfg)))
		os.Exit(1)
	}
}

// buildOptions merges flags over config into service options.
func buildOptions(flags *cliFlags, cfg *Config, log *zap.Logger) []md2docx.Option {
	opts := []md2docx.Option{md2docx.WithLogger(log)}

	if cmd := renderCommand(flags, cfg); cmd != "" {
		opts = append(opts, md2docx.WithRenderCommand(cmd, cfg.Renderer.Args...))
	}
	if timeout := flags.timeout; timeout > 0 {
		opts = append(opts, md2docx.WithTimeout(timeout))
	} else if cfg.Renderer.Timeout > 0 {
		opts = append(opts, md2docx.WithTimeout(cfg.Renderer.Timeout))
	}
	if cfg.Renderer.MaxConcurrency > 0 {
		opts = append(opts, md2docx.WithRenderConcurrency(cfg.Renderer.MaxConcurrency))
	}
	if flags.codeFallback || cfg.Renderer.CodeFallback {
		opts = append(opts, md2docx.WithCodeFallbackOnMissingRenderer(true))
	}
	if f := cfg.Fonts; f.Latin != "" || f.CJK != "" || f.Code != "" {
		opts = append(opts, md2docx.WithFonts(md2docx.FontSet{Latin: f.Latin, CJK: f.CJK, Code: f.Code}))
	}
	if t := cfg.Table; t.Width > 0 || t.MinColumnWidth > 0 {
		opts = append(opts, md2docx.WithTableLayout(t.Width, t.MinColumnWidth))
	}
	if i := cfg.Images; i.MaxWidthPx > 0 || i.MaxHeightPx > 0 {
		opts = append(opts, md2docx.WithImageCaps(i.MaxWidthPx, i.MaxHeightPx))
	}
	return opts
}

// renderCommand returns the effective renderer command, flag over config.
func renderCommand(flags *cliFlags, cfg *Config) string {
	if flags.renderCmd != "" {
		return flags.renderCmd
	}
	return cfg.Renderer.Command
}
