package md2docx

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// fakeRunner counts invocations and writes a PNG to the -o argument, or
// fails with err when set.
type fakeRunner struct {
	calls   atomic.Int32
	err     error
	payload []byte
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", "renderer exploded", f.err
	}
	out := ""
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-o" {
			out = args[i+1]
		}
	}
	payload := f.payload
	if payload == nil {
		payload = pngBytes(640, 480)
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return "", "", err
	}
	return "", "", nil
}

// pngBytes builds a minimal PNG header with the given dimensions, enough
// for signature detection and size parsing.
func pngBytes(width, height uint32) []byte {
	b := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
	b = binary.BigEndian.AppendUint32(b, width)
	b = binary.BigEndian.AppendUint32(b, height)
	// Bit depth, color type, compression, filter, interlace.
	return append(b, 8, 6, 0, 0, 0)
}

func testRenderer(t *testing.T, runner CommandRunner) *diagramRenderer {
	t.Helper()
	r := newDiagramRenderer(defaultServiceConfig(), t.TempDir())
	r.runner = runner
	r.lookPath = func(string) (string, error) { return "/usr/bin/mmdc", nil }
	t.Cleanup(r.Cleanup)
	return r
}

func TestDiagramRenderer_RendersOnceForIdenticalSources(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	r := testRenderer(t, runner)

	const source = "graph TD\n  A --> B"
	ctx := context.Background()

	first, err := r.Render(ctx, source)
	if err != nil {
		t.Fatalf("first Render: %v", err)
	}
	second, err := r.Render(ctx, source)
	if err != nil {
		t.Fatalf("second Render: %v", err)
	}

	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner invoked %d times, want 1", got)
	}
	if _, err := os.Stat(first); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestDiagramRenderer_PrewarmThenDispatchDoesNotRerender(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	r := testRenderer(t, runner)

	sources := []string{
		"graph TD\n  A --> B",
		"graph TD\n  A --> B", // duplicate
		"sequenceDiagram\n  A->>B: hi",
	}
	ctx := context.Background()
	r.Prewarm(ctx, sources)

	for _, src := range sources {
		if _, err := r.Render(ctx, src); err != nil {
			t.Fatalf("Render after Prewarm: %v", err)
		}
	}

	// Two distinct sources, two invocations total.
	if got := runner.calls.Load(); got != 2 {
		t.Errorf("runner invoked %d times, want 2", got)
	}
}

func TestDiagramRenderer_FailureIsMemoized(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("exit status 1")}
	r := testRenderer(t, runner)

	ctx := context.Background()
	const source = "graph TD\n  broken"

	if _, err := r.Render(ctx, source); !errors.Is(err, ErrDiagramRender) {
		t.Fatalf("err = %v, want ErrDiagramRender", err)
	}
	if _, err := r.Render(ctx, source); !errors.Is(err, ErrDiagramRender) {
		t.Fatalf("second err = %v, want ErrDiagramRender", err)
	}
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("runner invoked %d times, want 1 (failures must be memoized)", got)
	}
}

func TestDiagramRenderer_CacheHitSkipsInvocation(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	r := testRenderer(t, runner)

	const source = "graph LR\n  X --> Y"
	hash := hashSource(source)
	if err := os.WriteFile(r.cachePath(hash), pngBytes(100, 100), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := r.Render(context.Background(), source)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if path != r.cachePath(hash) {
		t.Errorf("path = %q, want cache path %q", path, r.cachePath(hash))
	}
	if got := runner.calls.Load(); got != 0 {
		t.Errorf("runner invoked %d times, want 0 on cache hit", got)
	}
}

func TestDiagramRenderer_MissingBinary(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	r := testRenderer(t, runner)
	r.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := r.Render(context.Background(), "graph TD\n  A")
	if !errors.Is(err, ErrRendererNotFound) {
		t.Fatalf("err = %v, want ErrRendererNotFound", err)
	}
	if got := runner.calls.Load(); got != 0 {
		t.Errorf("runner invoked %d times, want 0", got)
	}
}

func TestDiagramRenderer_RejectsNonPNGOutput(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{payload: []byte("<svg></svg>")}
	r := testRenderer(t, runner)

	_, err := r.Render(context.Background(), "graph TD\n  A")
	if !errors.Is(err, ErrDiagramRender) {
		t.Fatalf("err = %v, want ErrDiagramRender", err)
	}
	if fileExistsForTest(r.cachePath(hashSource("graph TD\n  A"))) {
		t.Error("non-PNG output was left in the cache")
	}
}

func TestDiagramRenderer_CleanupRemovesScratch(t *testing.T) {
	t.Parallel()

	r := testRenderer(t, &fakeRunner{})
	if _, err := r.Render(context.Background(), "graph TD\n  A --> B"); err != nil {
		t.Fatal(err)
	}

	r.mu.Lock()
	scratch := r.scratch
	r.mu.Unlock()
	if scratch == "" {
		t.Fatal("no scratch directory was created")
	}

	r.Cleanup()
	if fileExistsForTest(scratch) {
		t.Errorf("scratch dir %q survived Cleanup", scratch)
	}
}

func TestPNGSize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "good.png")
	if err := os.WriteFile(good, pngBytes(1280, 960), 0o644); err != nil {
		t.Fatal(err)
	}
	w, h, err := pngSize(good)
	if err != nil {
		t.Fatalf("pngSize: %v", err)
	}
	if w != 1280 || h != 960 {
		t.Errorf("size = %dx%d, want 1280x960", w, h)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("definitely not a png header here"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := pngSize(bad); err == nil {
		t.Error("pngSize accepted a non-PNG header")
	}

	// A truncated file must fail explicitly, not parse zeroed bytes.
	short := filepath.Join(dir, "short.png")
	if err := os.WriteFile(short, pngBytes(10, 10)[:12], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := pngSize(short); err == nil {
		t.Error("pngSize accepted a truncated header")
	}
}

func TestDisplaySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		w, h         int
		wantW, wantH int
	}{
		{"fits unchanged", 400, 300, 400, 300},
		{"wide image capped by width", 1200, 300, 600, 150},
		{"tall image capped by height", 400, 1520, 200, 760},
		{"both caps apply", 1200, 3040, 300, 760},
		{"zero width gets defaults", 0, 300, DefaultImageWidth, DefaultImageHeight},
		{"zero height gets defaults", 400, 0, DefaultImageWidth, DefaultImageHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, h := displaySize(tt.w, tt.h, DefaultMaxImageWidth, DefaultMaxImageHeight)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("displaySize(%d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func fileExistsForTest(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
