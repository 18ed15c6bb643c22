package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	md2docx "github.com/docfoundry/md2docx"
	"github.com/docfoundry/md2docx/internal/fileutil"
	"github.com/docfoundry/md2docx/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified; usage: md2docx [flags] <input.md|dir> [output.docx]")
	ErrInvalidExtension = errors.New("file must have .md or .markdown extension")
	ErrReadMarkdown     = errors.New("failed to read markdown file")
	ErrWriteDocx        = errors.New("failed to write docx file")
)

// FileToConvert pairs an input path with its resolved output path.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// run resolves inputs, builds the conversion set, and dispatches to the
// pool. Directory inputs run in batch mode with modification-time skip.
func run(ctx context.Context, flags *cliFlags, cfg *Config, pool *md2docx.ServicePool, log *zap.Logger) error {
	if len(flags.positional) == 0 {
		return ErrNoInput
	}
	inputPath := flags.positional[0]

	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}

	outDir := flags.outDir
	if outDir == "" {
		outDir = cfg.Output.DefaultDir
	}
	cacheDir := flags.cacheDir
	if cacheDir == "" {
		cacheDir = cfg.Renderer.CacheDir
	}

	if info.IsDir() {
		files, err := discoverFiles(inputPath, outDir)
		if err != nil {
			return err
		}
		return convertBatch(ctx, pool, files, cacheDir, log)
	}

	if err := validateMarkdownExtension(inputPath); err != nil {
		return err
	}
	file := FileToConvert{
		InputPath:  inputPath,
		OutputPath: resolveOutputPath(inputPath, outDir, flags.positional),
	}

	svc := pool.Acquire()
	defer pool.Release(svc)

	start := time.Now()
	if err := convertOne(ctx, svc, file, flags.title, cacheDir); err != nil {
		return err
	}
	log.Info("converted", zap.String("output", file.OutputPath),
		zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	return nil
}

// convertOne reads one markdown file, converts it, and writes the output.
func convertOne(ctx context.Context, svc *md2docx.Service, file FileToConvert, title, cacheDir string) error {
	content, err := os.ReadFile(file.InputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}

	out, err := svc.Convert(ctx, md2docx.Input{
		Markdown: string(content),
		Title:    title,
		CacheDir: cacheDir,
	})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(file.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteDocx, err)
		}
	}
	if err := os.WriteFile(file.OutputPath, out, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteDocx, err)
	}
	return nil
}

// discoverFiles walks a directory for markdown files, mapping each to its
// expected output path. Files whose output is not older than the input are
// skipped; that is the batch-mode freshness check.
func discoverFiles(dir, outDir string) ([]FileToConvert, error) {
	var files []FileToConvert
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || validateMarkdownExtension(path) != nil {
			return nil
		}
		files = append(files, FileToConvert{
			InputPath:  path,
			OutputPath: resolveOutputPath(path, outDir, nil),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering input files: %w", err)
	}
	return files, nil
}

// resolveOutputPath maps an input path to its output path. An explicit
// second positional argument wins; otherwise the input name with a .docx
// extension, in outDir when given.
func resolveOutputPath(inputPath, outDir string, positional []string) string {
	if len(positional) > 1 {
		return positional[1]
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath)) + ".docx"
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(filepath.Dir(inputPath), base)
}

// validateMarkdownExtension checks for a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// upToDate reports whether the output already reflects the input.
func upToDate(file FileToConvert) bool {
	return fileutil.NewerThan(file.OutputPath, file.InputPath)
}

// describeError appends actionable hints to known failures.
func describeError(err error, renderCmd string) string {
	msg := err.Error()
	switch {
	case errors.Is(err, md2docx.ErrRendererNotFound):
		msg += hints.ForMissingRenderer(renderCmd)
	case errors.Is(err, ErrConfigNotFound):
		msg += hints.ForMissingConfig()
	}
	return msg
}
