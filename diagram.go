package md2docx

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/docfoundry/md2docx/internal/fileutil"
	"github.com/docfoundry/md2docx/internal/process"
)

// diagramLanguage is the only fence tag that triggers rendering; all other
// fenced code becomes a literal code block.
const diagramLanguage = "mermaid"

const (
	defaultRenderCommand = "mmdc"
	defaultRenderWorkers = 4
)

// CommandRunner abstracts subprocess execution to enable testing without
// real renderer invocations.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// execRunner implements CommandRunner using os/exec. The renderer runs in
// its own process group so a timeout kill reaches its child processes.
type execRunner struct{}

// Compile-time interface check.
var _ CommandRunner = (*execRunner)(nil)

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.Setpgid(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillGroup(cmd.Process.Pid)
			return cmd.Process.Kill()
		}
		return nil
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// renderResult memoizes one render outcome for the duration of a run, so
// identical diagram sources never trigger a second external invocation,
// successful or not.
type renderResult struct {
	path string
	err  error
}

// diagramRenderer converts mermaid sources to cached PNG files through an
// external renderer. It is created per conversion run; the cache directory
// may outlive the run and is honored across runs.
type diagramRenderer struct {
	cmd      string
	args     []string
	timeout  time.Duration
	cacheDir string
	log      *zap.Logger
	runner   CommandRunner
	lookPath func(string) (string, error)

	sem   *semaphore.Weighted
	group singleflight.Group

	mu      sync.Mutex
	results map[string]renderResult
	scratch string
}

func newDiagramRenderer(cfg serviceConfig, cacheDir string) *diagramRenderer {
	return &diagramRenderer{
		cmd:      cfg.renderCmd,
		args:     cfg.renderArgs,
		timeout:  cfg.timeout,
		cacheDir: cacheDir,
		log:      cfg.log,
		runner:   execRunner{},
		lookPath: exec.LookPath,
		sem:      semaphore.NewWeighted(int64(cfg.renderWorkers)),
		results:  make(map[string]renderResult),
	}
}

// hashSource returns the content-addressed cache key for a diagram source.
func hashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])[:12]
}

func (r *diagramRenderer) cachePath(hash string) string {
	return filepath.Join(r.cacheDir, diagramLanguage+"-"+hash+".png")
}

// Render resolves a diagram source to a PNG path. Identical sources within
// one run coalesce into a single external invocation; concurrent requests
// for the same hash share one in-flight render. Errors are memoized so a
// failed source is not retried within the run.
func (r *diagramRenderer) Render(ctx context.Context, source string) (string, error) {
	hash := hashSource(source)

	r.mu.Lock()
	if res, ok := r.results[hash]; ok {
		r.mu.Unlock()
		return res.path, res.err
	}
	r.mu.Unlock()

	v, err, _ := r.group.Do(hash, func() (interface{}, error) {
		path, err := r.renderOnce(ctx, hash, source)
		r.mu.Lock()
		r.results[hash] = renderResult{path: path, err: err}
		r.mu.Unlock()
		return path, err
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// renderOnce performs the actual cache check and external invocation.
func (r *diagramRenderer) renderOnce(ctx context.Context, hash, source string) (string, error) {
	out := r.cachePath(hash)
	if fileutil.FileExists(out) {
		return out, nil
	}

	if _, err := r.lookPath(r.cmd); err != nil {
		return "", fmt.Errorf("%w: %q", ErrRendererNotFound, r.cmd)
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer r.sem.Release(1)

	scratch, err := r.scratchDir()
	if err != nil {
		return "", err
	}
	in, err := fileutil.WriteFileIn(scratch, hash+".mmd", source)
	if err != nil {
		return "", err
	}

	renderCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append(append([]string{}, r.args...), "-i", in, "-o", out)
	_, stderr, runErr := r.runner.Run(renderCtx, r.cmd, args...)

	switch {
	case errors.Is(renderCtx.Err(), context.DeadlineExceeded):
		r.log.Warn("diagram render timed out, falling back to code block",
			zap.String("hash", hash))
		return "", fmt.Errorf("%w: after %s", ErrDiagramTimeout, r.timeout)
	case runErr != nil:
		r.log.Warn("diagram render failed, falling back to code block",
			zap.String("hash", hash), zap.String("stderr", stderr), zap.Error(runErr))
		return "", fmt.Errorf("%w: %v", ErrDiagramRender, runErr)
	case !fileutil.FileExists(out):
		r.log.Warn("diagram renderer produced no output, falling back to code block",
			zap.String("hash", hash))
		return "", fmt.Errorf("%w: output file missing", ErrDiagramRender)
	}

	if kind, err := filetype.MatchFile(out); err != nil || kind != matchers.TypePng {
		_ = os.Remove(out)
		r.log.Warn("diagram renderer produced a non-PNG file, falling back to code block",
			zap.String("hash", hash))
		return "", fmt.Errorf("%w: output is not a PNG", ErrDiagramRender)
	}

	return out, nil
}

// Prewarm renders distinct diagram sources in parallel ahead of the
// sequential body dispatch. Failures are memoized, not returned; dispatch
// observes them when it asks for the same source.
func (r *diagramRenderer) Prewarm(ctx context.Context, sources []string) {
	var wg sync.WaitGroup
	seen := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		hash := hashSource(src)
		if _, dup := seen[hash]; dup {
			continue
		}
		seen[hash] = struct{}{}

		wg.Add(1)
		go func(src string) {
			defer wg.Done()
			_, _ = r.Render(ctx, src)
		}(src)
	}
	wg.Wait()
}

// Cleanup removes the per-run scratch directory with the temporary diagram
// sources. Cached PNG output is kept.
func (r *diagramRenderer) Cleanup() {
	r.mu.Lock()
	scratch := r.scratch
	r.scratch = ""
	r.mu.Unlock()

	if scratch != "" {
		_ = os.RemoveAll(scratch)
	}
}

// scratchDir lazily creates the per-run temp directory.
func (r *diagramRenderer) scratchDir() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scratch != "" {
		return r.scratch, nil
	}
	dir := filepath.Join(os.TempDir(), "md2docx-render-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating scratch directory: %w", err)
	}
	r.scratch = dir
	return dir, nil
}

// pngSize reads the pixel dimensions from a PNG header: width and height
// are big-endian 32-bit integers at fixed offsets after the 8-byte
// signature, 4-byte chunk length, and "IHDR" tag.
func pngSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	header := make([]byte, 24)
	if _, err := io.ReadFull(f, header); err != nil {
		return 0, 0, fmt.Errorf("reading PNG header: %w", err)
	}

	signature := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if !bytes.Equal(header[:8], signature) || !bytes.Equal(header[12:16], []byte("IHDR")) {
		return 0, 0, errors.New("not a PNG header")
	}

	width = int(binary.BigEndian.Uint32(header[16:20]))
	height = int(binary.BigEndian.Uint32(header[20:24]))
	return width, height, nil
}

// displaySize scales natural pixel dimensions to fit the caps, preserving
// aspect ratio: first against the width cap, then, if the result is still
// too tall, against the height cap. Unparseable dimensions get the fixed
// default size.
func displaySize(width, height, maxW, maxH int) (int, int) {
	if width <= 0 || height <= 0 {
		return DefaultImageWidth, DefaultImageHeight
	}

	w, h := float64(width), float64(height)
	if w > float64(maxW) {
		scale := float64(maxW) / w
		w *= scale
		h *= scale
	}
	if h > float64(maxH) {
		scale := float64(maxH) / h
		w *= scale
		h *= scale
	}
	return int(w + 0.5), int(h + 0.5)
}
