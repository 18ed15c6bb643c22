package md2docx

import (
	"regexp"
	"strings"
)

// Parser states. Transitions are forward-only: COVER → TOC → REVISION →
// MAIN, with REVISION skipped when the body starts straight after the TOC.
type parseState int

const (
	stateCover parseState = iota
	stateTOC
	stateRevision
	stateMain
)

// Cover-region patterns.
var (
	coverTitleRe    = regexp.MustCompile(`^#\s+(.+)$`)
	coverSubtitleRe = regexp.MustCompile(`^\*{0,2}For\s+(.+?)\*{0,2}$`)
	coverVersionRe  = regexp.MustCompile(`(?i)^\*{0,2}Version[:：]?\*{0,2}\s*(.+)$`)
	coverAuthorRe   = regexp.MustCompile(`(?i)^\*{0,2}Prepared\s+by[:：]?\*{0,2}\s*(.+)$`)
	coverOrgRe      = regexp.MustCompile(`(?i)^\*{0,2}Organization[:：]?\*{0,2}\s*(.+)$`)
	coverDateRe     = regexp.MustCompile(`^\*{0,2}(\d{4}-\d{2}-\d{2})\*{0,2}$`)

	// A numbered top-level body heading ("## 1 Introduction") marks the
	// start of MAIN even when no revision-history section exists.
	numberedHeadingRe = regexp.MustCompile(`^##\s+\d+(?:[.\s].*)?$`)

	pipeRowRe = regexp.MustCompile(`^\s*\|.*\|\s*$`)
)

// Corporate suffixes for the organization heuristic.
var orgSuffixes = []string{
	"Inc.", "Inc", "Ltd.", "Ltd", "LLC", "Corp.", "Corp", "Co.", "GmbH", "AG", "公司",
}

// structureParser slices raw document text into cover, TOC, revision
// history, and body regions.
type structureParser interface {
	Parse(content string) *DocumentStructure
}

// lineStructureParser implements structureParser as a forward-only state
// machine over classified lines.
type lineStructureParser struct{}

// Compile-time interface check.
var _ structureParser = (*lineStructureParser)(nil)

// Parse never fails: malformed or missing cover/TOC/revision regions yield
// empty fields rather than errors.
func (p *lineStructureParser) Parse(content string) *DocumentStructure {
	doc := &DocumentStructure{}
	state := stateCover

	lines := splitLines(content)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch state {
		case stateCover:
			switch {
			case isTOCMarker(trimmed):
				state = stateTOC
			case numberedHeadingRe.MatchString(trimmed):
				// No TOC marker; the body starts here. Without this escape
				// a document missing the marker would lose its whole body.
				state = stateMain
				doc.BodyLines = append(doc.BodyLines, line)
			default:
				p.scanCoverLine(trimmed, &doc.Cover)
			}

		case stateTOC:
			switch {
			case isRevisionMarker(trimmed):
				state = stateRevision
			case numberedHeadingRe.MatchString(trimmed):
				// No revision history; the body starts here.
				state = stateMain
				doc.BodyLines = append(doc.BodyLines, line)
			default:
				doc.TOCLines = append(doc.TOCLines, line)
			}

		case stateRevision:
			switch {
			case pipeRowRe.MatchString(trimmed):
				if cells, ok := parsePipeRow(trimmed); ok {
					doc.RevisionRows = append(doc.RevisionRows, cells)
				}
			case isHeading(trimmed) && !mentionsRevision(trimmed):
				state = stateMain
				doc.BodyLines = append(doc.BodyLines, line)
			}

		case stateMain:
			doc.BodyLines = append(doc.BodyLines, line)
		}
	}

	return doc
}

// scanCoverLine matches one cover line against the metadata patterns.
// First match wins for each field.
func (p *lineStructureParser) scanCoverLine(line string, cover *CoverInfo) {
	if line == "" {
		return
	}
	switch {
	case cover.Title == "" && coverTitleRe.MatchString(line):
		cover.Title = coverTitleRe.FindStringSubmatch(line)[1]
	case cover.Subtitle == "" && coverSubtitleRe.MatchString(line):
		cover.Subtitle = "For " + coverSubtitleRe.FindStringSubmatch(line)[1]
	case cover.Version == "" && coverVersionRe.MatchString(line):
		cover.Version = strings.TrimSpace(coverVersionRe.FindStringSubmatch(line)[1])
	case cover.Author == "" && coverAuthorRe.MatchString(line):
		cover.Author = strings.TrimSpace(coverAuthorRe.FindStringSubmatch(line)[1])
	case cover.Organization == "" && coverOrgRe.MatchString(line):
		cover.Organization = strings.TrimSpace(coverOrgRe.FindStringSubmatch(line)[1])
	case cover.Date == "" && coverDateRe.MatchString(line):
		cover.Date = coverDateRe.FindStringSubmatch(line)[1]
	case cover.Organization == "" && looksLikeOrganization(line):
		cover.Organization = strings.Trim(line, "* ")
	}
}

// isTOCMarker reports whether the line is the (case-insensitive) "Table of
// Contents" marker, with or without heading markers.
func isTOCMarker(line string) bool {
	text := strings.TrimSpace(strings.TrimLeft(line, "#"))
	return strings.EqualFold(text, "table of contents")
}

// isRevisionMarker reports whether the line is a "Revision History" heading.
func isRevisionMarker(line string) bool {
	if !isHeading(line) {
		return false
	}
	return mentionsRevision(line)
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

func mentionsRevision(line string) bool {
	return strings.Contains(strings.ToLower(line), "revision")
}

// looksLikeOrganization applies the cover heuristic: a title-case line
// ending in a corporate suffix.
func looksLikeOrganization(line string) bool {
	text := strings.Trim(line, "* ")
	if text == "" || strings.HasPrefix(text, "#") {
		return false
	}
	first, _ := firstRune(text)
	if first < 'A' || first > 'Z' {
		return false
	}
	for _, suffix := range orgSuffixes {
		if strings.HasSuffix(text, suffix) {
			return true
		}
	}
	return false
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// parsePipeRow splits a Markdown pipe row into trimmed cells. Separator
// rows (|---|---|) are rejected.
func parsePipeRow(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "|")
	trimmed = strings.TrimSuffix(trimmed, "|")

	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	separator := true
	for i, part := range parts {
		cells[i] = strings.TrimSpace(part)
		if strings.Trim(cells[i], "-: ") != "" {
			separator = false
		}
	}
	if separator {
		return nil, false
	}
	return cells, true
}

// splitLines normalizes line endings and splits into lines.
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}
