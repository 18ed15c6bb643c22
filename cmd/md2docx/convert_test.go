package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		outDir     string
		positional []string
		want       string
	}{
		{
			name:  "sibling docx by default",
			input: filepath.Join("docs", "spec.md"),
			want:  filepath.Join("docs", "spec.docx"),
		},
		{
			name:   "out dir overrides location",
			input:  filepath.Join("docs", "spec.md"),
			outDir: "build",
			want:   filepath.Join("build", "spec.docx"),
		},
		{
			name:       "explicit output wins",
			input:      "spec.md",
			outDir:     "build",
			positional: []string{"spec.md", "final.docx"},
			want:       "final.docx",
		},
		{
			name:  "markdown extension stripped",
			input: "notes.markdown",
			want:  "notes.docx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := resolveOutputPath(tt.input, tt.outDir, tt.positional)
			if got != tt.want {
				t.Errorf("resolveOutputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateMarkdownExtension(t *testing.T) {
	t.Parallel()

	if err := validateMarkdownExtension("a.md"); err != nil {
		t.Errorf("a.md: %v", err)
	}
	if err := validateMarkdownExtension("a.markdown"); err != nil {
		t.Errorf("a.markdown: %v", err)
	}
	if err := validateMarkdownExtension("a.txt"); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("a.txt: err = %v, want ErrInvalidExtension", err)
	}
}

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o750); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(sub, "b.markdown"),
		filepath.Join(dir, "ignore.txt"),
	} {
		if err := os.WriteFile(name, []byte("# T"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := discoverFiles(dir, "")
	if err != nil {
		t.Fatalf("discoverFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("found %d files, want 2: %+v", len(files), files)
	}
	for _, f := range files {
		if filepath.Ext(f.OutputPath) != ".docx" {
			t.Errorf("output path %q is not .docx", f.OutputPath)
		}
	}
}

func TestUpToDate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "in.md")
	output := filepath.Join(dir, "in.docx")
	if err := os.WriteFile(input, []byte("# T"), 0o644); err != nil {
		t.Fatal(err)
	}

	file := FileToConvert{InputPath: input, OutputPath: output}
	if upToDate(file) {
		t.Error("missing output reported as up to date")
	}

	if err := os.WriteFile(output, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !upToDate(file) {
		t.Error("fresh output reported as stale")
	}

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(output, past, past); err != nil {
		t.Fatal(err)
	}
	if upToDate(file) {
		t.Error("stale output reported as up to date")
	}
}

func TestDescribeError_AddsHints(t *testing.T) {
	t.Parallel()

	msg := describeError(ErrConfigNotFound, "mmdc")
	if msg == ErrConfigNotFound.Error() {
		t.Error("expected a hint appended for a missing config")
	}
}
