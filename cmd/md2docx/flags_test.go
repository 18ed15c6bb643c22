package main

import (
	"testing"
	"time"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	f, err := parseFlags([]string{
		"md2docx",
		"-c", "team",
		"--out-dir", "build",
		"--cache-dir", "/tmp/diagrams",
		"--title", "My Spec",
		"--render-cmd", "mermaid",
		"-w", "4",
		"--timeout", "45s",
		"--allow-code-fallback",
		"-v",
		"spec.md", "out.docx",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	if f.config != "team" || f.outDir != "build" || f.cacheDir != "/tmp/diagrams" {
		t.Errorf("paths = %q %q %q", f.config, f.outDir, f.cacheDir)
	}
	if f.title != "My Spec" || f.renderCmd != "mermaid" {
		t.Errorf("title = %q, renderCmd = %q", f.title, f.renderCmd)
	}
	if f.workers != 4 || f.timeout != 45*time.Second {
		t.Errorf("workers = %d, timeout = %v", f.workers, f.timeout)
	}
	if !f.codeFallback || !f.verbose || f.quiet {
		t.Errorf("bools = %+v", f)
	}
	if len(f.positional) != 2 || f.positional[0] != "spec.md" {
		t.Errorf("positional = %v", f.positional)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	f, err := parseFlags([]string{"md2docx", "spec.md"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.workers != 0 || f.timeout != 0 || f.verbose || f.quiet || f.showVersion {
		t.Errorf("defaults = %+v", f)
	}
}

func TestParseFlags_UnknownFlag(t *testing.T) {
	t.Parallel()

	if _, err := parseFlags([]string{"md2docx", "--nope"}); err == nil {
		t.Error("unknown flag accepted")
	}
}
