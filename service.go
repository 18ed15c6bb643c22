package md2docx

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/docfoundry/md2docx/internal/fileutil"
)

// Service orchestrates the markdown-to-DOCX pipeline.
type Service struct {
	cfg    serviceConfig
	parser structureParser
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithLogger).
func New(opts ...Option) *Service {
	s := &Service{
		cfg:    defaultServiceConfig(),
		parser: &lineStructureParser{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert runs the full pipeline and returns the DOCX as bytes. Output is
// produced only after assembly completes, so a failed conversion never
// leaves partial state behind. The context bounds the whole run.
func (s *Service) Convert(ctx context.Context, input Input) ([]byte, error) {
	if input.Markdown == "" {
		return nil, ErrEmptyMarkdown
	}
	if err := validateLayout(s.cfg); err != nil {
		return nil, err
	}

	structure := s.parser.Parse(input.Markdown)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cacheDir, cleanupCache, err := s.resolveCacheDir(input.CacheDir)
	if err != nil {
		return nil, err
	}
	defer cleanupCache()

	renderer := newDiagramRenderer(s.cfg, cacheDir)
	defer renderer.Cleanup()

	// Distinct diagrams render in parallel ahead of the sequential
	// dispatch; dispatch then hits the warm cache.
	if sources := diagramSources(structure.BodyLines); len(sources) > 0 {
		s.cfg.log.Debug("pre-rendering diagrams", zap.Int("count", len(sources)))
		renderer.Prewarm(ctx, sources)
	}

	elements, err := newBodyBuilder(s.cfg, renderer).Build(ctx, structure.BodyLines)
	if err != nil {
		return nil, fmt.Errorf("building document body: %w", err)
	}

	out, err := newDocxAssembler(s.cfg, input.Title).Assemble(ctx, structure, elements)
	if err != nil {
		return nil, fmt.Errorf("assembling document: %w", err)
	}
	return out, nil
}

// resolveCacheDir returns the diagram cache directory and its cleanup. A
// configured directory persists across runs so unchanged diagrams skip the
// external renderer; the per-run fallback is removed with the run.
func (s *Service) resolveCacheDir(dir string) (string, func(), error) {
	if dir != "" {
		if err := fileutil.EnsureDir(dir); err != nil {
			return "", nil, err
		}
		return dir, func() {}, nil
	}

	tmp, err := os.MkdirTemp("", "md2docx-cache-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return tmp, func() { _ = os.RemoveAll(tmp) }, nil
}
