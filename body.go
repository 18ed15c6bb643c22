package md2docx

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var (
	headingRe      = regexp.MustCompile(`^(#{1,5})\s+(.+)$`)
	fenceRe        = regexp.MustCompile("^(```|~~~)\\s*([A-Za-z0-9_-]*)\\s*$")
	imageRefRe     = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)]+)\)$`)
	bulletRe       = regexp.MustCompile(`^-\s+(.+)$`)
	numberedBodyRe = regexp.MustCompile(`^\d+(?:[.\s]|$)`)
)

// bodyBuilder turns the raw MAIN-region lines into ordered elements.
type bodyBuilder struct {
	cfg      serviceConfig
	renderer *diagramRenderer
	log      *zap.Logger
}

func newBodyBuilder(cfg serviceConfig, renderer *diagramRenderer) *bodyBuilder {
	return &bodyBuilder{cfg: cfg, renderer: renderer, log: cfg.log}
}

// Build dispatches body lines to the requirement extractor, diagram
// renderer, table layout, and inline parser, in source order. The returned
// slice carries page-break decisions already applied.
func (b *bodyBuilder) Build(ctx context.Context, lines []string) ([]DocumentElement, error) {
	var elements []DocumentElement
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		text := strings.Join(paragraph, " ")
		paragraph = paragraph[:0]
		elements = append(elements, DocumentElement{
			Kind:      KindParagraph,
			Paragraph: &ParagraphElement{Runs: parseInline(text, b.cfg.fonts)},
		})
	}

	for i := 0; i < len(lines); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimRight(lines[i], " \t")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flush()

		case horizontalRuleRe.MatchString(trimmed):
			flush()

		case headingRe.MatchString(trimmed):
			flush()
			if rec, lastIdx, ok := extractRequirement(lines, i); ok {
				elements = append(elements, DocumentElement{Kind: KindRequirement, Requirement: rec})
				i = lastIdx
				continue
			}
			hm := headingRe.FindStringSubmatch(trimmed)
			elements = append(elements, DocumentElement{
				Kind:    KindHeading,
				Heading: &HeadingElement{Level: len(hm[1]), Text: strings.TrimSpace(hm[2])},
			})

		case fenceRe.MatchString(trimmed):
			flush()
			fm := fenceRe.FindStringSubmatch(trimmed)
			content, lang, lastIdx := collectFence(lines, i, fm[1], fm[2])
			element, err := b.fencedElement(ctx, lang, content)
			if err != nil {
				return nil, err
			}
			elements = append(elements, element)
			i = lastIdx

		case pipeRowRe.MatchString(trimmed):
			flush()
			table, lastIdx := b.collectTable(lines, i)
			if table != nil {
				elements = append(elements, DocumentElement{Kind: KindTable, Table: table})
			}
			i = lastIdx

		case imageRefRe.MatchString(trimmed):
			flush()
			im := imageRefRe.FindStringSubmatch(trimmed)
			elements = append(elements, b.imageElement(im[2], im[1]))

		case bulletRe.MatchString(trimmed):
			flush()
			bm := bulletRe.FindStringSubmatch(trimmed)
			elements = append(elements, DocumentElement{
				Kind:      KindParagraph,
				Paragraph: &ParagraphElement{Runs: parseInline(bm[1], b.cfg.fonts), Bullet: true},
			})

		default:
			paragraph = append(paragraph, trimmed)
		}
	}
	flush()

	markPageBreaks(elements)
	return elements, nil
}

// collectFence gathers the content of a fenced block, returning the lines,
// the language tag, and the index of the closing fence (or the last line
// when the fence is unterminated).
func collectFence(lines []string, start int, fence, lang string) ([]string, string, int) {
	var content []string
	for i := start + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), fence) {
			return content, lang, i
		}
		content = append(content, lines[i])
	}
	return content, lang, len(lines) - 1
}

// fencedElement renders a mermaid fence to an image, or yields a literal
// code block for other languages and for failed renders. A missing
// renderer binary is fatal unless code fallback is enabled.
func (b *bodyBuilder) fencedElement(ctx context.Context, lang string, content []string) (DocumentElement, error) {
	codeBlock := DocumentElement{
		Kind: KindCodeBlock,
		Code: &CodeBlockElement{Language: lang, Lines: content},
	}

	if !strings.EqualFold(lang, diagramLanguage) {
		return codeBlock, nil
	}

	source := strings.Join(content, "\n")
	path, err := b.renderer.Render(ctx, source)
	switch {
	case errors.Is(err, ErrRendererNotFound) && !b.cfg.fallbackNoBinary:
		return DocumentElement{}, err
	case err != nil:
		// Warning already logged by the renderer.
		return codeBlock, nil
	}

	return b.imageElement(path, "diagram"), nil
}

// imageElement reads the raster header for natural dimensions and applies
// the display caps. Unreadable headers fall back to the default size.
func (b *bodyBuilder) imageElement(path, alt string) DocumentElement {
	width, height, err := pngSize(path)
	if err != nil {
		b.log.Warn("unable to read image dimensions, using defaults",
			zap.String("path", path), zap.Error(err))
		width, height = 0, 0
	}
	dw, dh := displaySize(width, height, b.cfg.maxImageWidth, b.cfg.maxImageHeight)
	return DocumentElement{
		Kind:  KindImage,
		Image: &ImageElement{Path: path, DisplayWidth: dw, DisplayHeight: dh, AltText: alt},
	}
}

// collectTable gathers contiguous pipe rows into a table element with
// computed column widths. The second row, when it is a separator, is
// dropped. Returns nil when the block has no data rows at all.
func (b *bodyBuilder) collectTable(lines []string, start int) (*TableElement, int) {
	var rows [][]string
	last := start
	for i := start; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !pipeRowRe.MatchString(trimmed) {
			break
		}
		if cells, ok := parsePipeRow(trimmed); ok {
			rows = append(rows, cells)
		}
		last = i
	}
	if len(rows) == 0 {
		return nil, last
	}

	headers := rows[0]
	body := rows[1:]
	return &TableElement{
		Headers:      headers,
		Rows:         body,
		ColumnWidths: columnWidths(headers, body, b.cfg.tableWidth, b.cfg.minColumnWidth),
	}, last
}

// diagramSources scans body lines for mermaid fences ahead of dispatch so
// distinct diagrams can render in parallel and warm the cache.
func diagramSources(lines []string) []string {
	var sources []string
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if fm := fenceRe.FindStringSubmatch(trimmed); fm != nil {
			content, lang, lastIdx := collectFence(lines, i, fm[1], fm[2])
			if strings.EqualFold(lang, diagramLanguage) {
				sources = append(sources, strings.Join(content, "\n"))
			}
			i = lastIdx
		}
	}
	return sources
}

// markPageBreaks applies the heading page-break policy: H1 and numbered
// top-level sections always break; a lower-level heading breaks only when
// it opens a run of consecutive headings that is immediately followed by a
// requirement table, so a requirement's heading cluster is not orphaned at
// the bottom of a page and stacked headings do not each force a new page.
func markPageBreaks(elements []DocumentElement) {
	for i := range elements {
		if elements[i].Kind != KindHeading {
			continue
		}
		h := elements[i].Heading

		if h.Level == 1 || (h.Level == 2 && numberedBodyRe.MatchString(h.Text)) {
			h.PageBreakBefore = true
			continue
		}

		// Only the first heading of a consecutive cluster may break.
		if i > 0 && elements[i-1].Kind == KindHeading {
			continue
		}
		j := i
		for j < len(elements) && elements[j].Kind == KindHeading {
			j++
		}
		if j < len(elements) && elements[j].Kind == KindRequirement {
			h.PageBreakBefore = true
		}
	}
}

// validateLayout guards against configurations that cannot satisfy the
// width-sum invariant.
func validateLayout(cfg serviceConfig) error {
	if cfg.tableWidth <= 0 || cfg.minColumnWidth <= 0 || cfg.minColumnWidth > cfg.tableWidth {
		return fmt.Errorf("%w: total %d, min column %d",
			ErrInvalidTableWidth, cfg.tableWidth, cfg.minColumnWidth)
	}
	return nil
}
