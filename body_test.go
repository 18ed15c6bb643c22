package md2docx

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func testBodyBuilder(t *testing.T, runner CommandRunner) *bodyBuilder {
	t.Helper()
	cfg := defaultServiceConfig()
	r := newDiagramRenderer(cfg, t.TempDir())
	r.runner = runner
	r.lookPath = func(string) (string, error) { return "/usr/bin/mmdc", nil }
	t.Cleanup(r.Cleanup)
	return newBodyBuilder(cfg, r)
}

func buildBody(t *testing.T, markdown string) []DocumentElement {
	t.Helper()
	b := testBodyBuilder(t, &fakeRunner{})
	elements, err := b.Build(context.Background(), splitLines(markdown))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return elements
}

func kinds(elements []DocumentElement) []ElementKind {
	out := make([]ElementKind, len(elements))
	for i, e := range elements {
		out[i] = e.Kind
	}
	return out
}

func TestBodyBuilder_Dispatch(t *testing.T) {
	t.Parallel()

	markdown := strings.Join([]string{
		"## 1 Introduction",
		"",
		"First paragraph line",
		"continues here.",
		"",
		"- bullet one",
		"- bullet two",
		"",
		"| Col A | Col B |",
		"|-------|-------|",
		"| 1     | 2     |",
		"",
		"### REQ-SYS-001 Startup Time",
		"**Statement:** The system shall start within 5 s.",
		"",
		"```python",
		"print('hi')",
		"```",
	}, "\n")

	elements := buildBody(t, markdown)

	want := []ElementKind{
		KindHeading,
		KindParagraph,
		KindParagraph, // bullet one
		KindParagraph, // bullet two
		KindTable,
		KindRequirement,
		KindCodeBlock,
	}
	got := kinds(elements)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", got, want)
		}
	}

	// Blank-line joined paragraph.
	para := elements[1].Paragraph
	if len(para.Runs) != 1 || para.Runs[0].Text != "First paragraph line continues here." {
		t.Errorf("paragraph runs = %+v", para.Runs)
	}
	if !elements[2].Paragraph.Bullet || !elements[3].Paragraph.Bullet {
		t.Error("bullet lines should be marked Bullet")
	}

	table := elements[4].Table
	if len(table.Headers) != 2 || table.Headers[0] != "Col A" {
		t.Errorf("table headers = %v", table.Headers)
	}
	if len(table.Rows) != 1 || table.Rows[0][1] != "2" {
		t.Errorf("table rows = %v", table.Rows)
	}

	if elements[5].Requirement.ID != "REQ-SYS-001" {
		t.Errorf("requirement ID = %q", elements[5].Requirement.ID)
	}

	code := elements[6].Code
	if code.Language != "python" || len(code.Lines) != 1 {
		t.Errorf("code block = %+v", code)
	}
}

func TestBodyBuilder_MermaidBecomesImage(t *testing.T) {
	t.Parallel()

	b := testBodyBuilder(t, &fakeRunner{payload: pngBytes(400, 300)})
	lines := splitLines("```mermaid\ngraph TD\n  A --> B\n```")

	elements, err := b.Build(context.Background(), lines)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(elements) != 1 || elements[0].Kind != KindImage {
		t.Fatalf("elements = %v, want one image", kinds(elements))
	}
	img := elements[0].Image
	// 400x300 natural fits under the caps unchanged.
	if img.DisplayWidth != 400 || img.DisplayHeight != 300 {
		t.Errorf("display size = %dx%d, want 400x300", img.DisplayWidth, img.DisplayHeight)
	}
	if img.Path == "" {
		t.Error("image path is empty")
	}
}

func TestBodyBuilder_FailedRenderFallsBackToCodeBlock(t *testing.T) {
	t.Parallel()

	b := testBodyBuilder(t, &fakeRunner{err: errors.New("exit status 1")})
	lines := splitLines("```mermaid\ngraph TD\n  broken\n```")

	elements, err := b.Build(context.Background(), lines)
	if err != nil {
		t.Fatalf("Build should not fail on a render error: %v", err)
	}
	if len(elements) != 1 || elements[0].Kind != KindCodeBlock {
		t.Fatalf("elements = %v, want one code block", kinds(elements))
	}
	if elements[0].Code.Language != "mermaid" {
		t.Errorf("language = %q, want mermaid", elements[0].Code.Language)
	}
}

func TestBodyBuilder_MissingRendererIsFatalByDefault(t *testing.T) {
	t.Parallel()

	b := testBodyBuilder(t, &fakeRunner{})
	b.renderer.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err := b.Build(context.Background(), splitLines("```mermaid\ngraph TD\n  A\n```"))
	if !errors.Is(err, ErrRendererNotFound) {
		t.Fatalf("err = %v, want ErrRendererNotFound", err)
	}
}

func TestBodyBuilder_MissingRendererFallbackWhenEnabled(t *testing.T) {
	t.Parallel()

	cfg := defaultServiceConfig()
	cfg.fallbackNoBinary = true
	r := newDiagramRenderer(cfg, t.TempDir())
	r.runner = &fakeRunner{}
	r.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }
	t.Cleanup(r.Cleanup)
	b := newBodyBuilder(cfg, r)

	elements, err := b.Build(context.Background(), splitLines("```mermaid\ngraph TD\n  A\n```"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(elements) != 1 || elements[0].Kind != KindCodeBlock {
		t.Fatalf("elements = %v, want one code block", kinds(elements))
	}
}

func TestBodyBuilder_UnterminatedFence(t *testing.T) {
	t.Parallel()

	elements := buildBody(t, "```python\nprint('hi')\nstill code")
	if len(elements) != 1 || elements[0].Kind != KindCodeBlock {
		t.Fatalf("elements = %v, want one code block", kinds(elements))
	}
	if got := len(elements[0].Code.Lines); got != 2 {
		t.Errorf("code lines = %d, want 2", got)
	}
}

func TestMarkPageBreaks(t *testing.T) {
	t.Parallel()

	heading := func(level int, text string) DocumentElement {
		return DocumentElement{Kind: KindHeading, Heading: &HeadingElement{Level: level, Text: text}}
	}
	paragraph := DocumentElement{Kind: KindParagraph, Paragraph: &ParagraphElement{}}
	requirement := DocumentElement{Kind: KindRequirement, Requirement: &RequirementRecord{ID: "REQ-X-001"}}

	tests := []struct {
		name     string
		elements []DocumentElement
		want     []bool // PageBreakBefore per heading, in order
	}{
		{
			name:     "h1 always breaks",
			elements: []DocumentElement{paragraph, heading(1, "Appendix")},
			want:     []bool{true},
		},
		{
			name:     "numbered h2 breaks",
			elements: []DocumentElement{paragraph, heading(2, "3 Requirements")},
			want:     []bool{true},
		},
		{
			name:     "unnumbered h2 does not break",
			elements: []DocumentElement{paragraph, heading(2, "Overview")},
			want:     []bool{false},
		},
		{
			name:     "heading before requirement breaks",
			elements: []DocumentElement{paragraph, heading(3, "Login"), requirement},
			want:     []bool{true},
		},
		{
			name:     "only cluster head breaks before requirement",
			elements: []DocumentElement{paragraph, heading(3, "Auth"), heading(4, "Login"), requirement},
			want:     []bool{true, false},
		},
		{
			name:     "heading before prose does not break",
			elements: []DocumentElement{paragraph, heading(3, "Notes"), paragraph},
			want:     []bool{false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Deep-copy headings; the fixtures share pointers otherwise.
			elements := make([]DocumentElement, len(tt.elements))
			for i, e := range tt.elements {
				elements[i] = e
				if e.Kind == KindHeading {
					h := *e.Heading
					elements[i].Heading = &h
				}
			}

			markPageBreaks(elements)

			var got []bool
			for _, e := range elements {
				if e.Kind == KindHeading {
					got = append(got, e.Heading.PageBreakBefore)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("breaks = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("breaks = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDiagramSources(t *testing.T) {
	t.Parallel()

	markdown := strings.Join([]string{
		"```mermaid",
		"graph TD",
		"  A --> B",
		"```",
		"text",
		"```python",
		"print('hi')",
		"```",
		"```mermaid",
		"graph LR",
		"  X --> Y",
		"```",
	}, "\n")

	sources := diagramSources(splitLines(markdown))
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	if !strings.Contains(sources[0], "A --> B") || !strings.Contains(sources[1], "X --> Y") {
		t.Errorf("sources = %q", sources)
	}
}

func TestValidateLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		total   int
		min     int
		wantErr bool
	}{
		{"defaults are valid", DefaultTableWidth, DefaultMinColumnWidth, false},
		{"zero total", 0, DefaultMinColumnWidth, true},
		{"min above total", 1000, 2000, true},
		{"zero min", DefaultTableWidth, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultServiceConfig()
			cfg.tableWidth = tt.total
			cfg.minColumnWidth = tt.min
			err := validateLayout(cfg)
			if tt.wantErr && !errors.Is(err, ErrInvalidTableWidth) {
				t.Errorf("err = %v, want ErrInvalidTableWidth", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}
