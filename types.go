package md2docx

import (
	"time"

	"go.uber.org/zap"
)

// Table layout defaults in twips (1/20 point). 9360 twips = 6.5 inches,
// the printable width of a US Letter page with 1 inch margins.
const (
	DefaultTableWidth     = 9360
	DefaultMinColumnWidth = 720
)

// Image display caps in pixels at 96 DPI.
const (
	DefaultMaxImageWidth  = 600
	DefaultMaxImageHeight = 760

	// Fallback display size when a raster header cannot be parsed.
	DefaultImageWidth  = 480
	DefaultImageHeight = 320
)

// defaultTimeout bounds a single external diagram render.
const defaultTimeout = 30 * time.Second

// CoverInfo holds the metadata scanned from the document's cover block.
// Absent fields stay empty; the assembler renders only what is present.
type CoverInfo struct {
	Title        string
	Subtitle     string
	Version      string
	Author       string
	Organization string
	Date         string
}

// DocumentStructure is the result of slicing the raw input into regions.
// Regions are contiguous and non-overlapping; the body always follows the
// revision history (or the TOC, when revision history is absent).
type DocumentStructure struct {
	Cover CoverInfo

	// TOCLines are kept only as a region marker. The assembler regenerates
	// the table of contents from headings instead of copying these.
	TOCLines []string

	// RevisionRows holds the cells of the revision-history pipe table,
	// header row first, separator rows removed.
	RevisionRows [][]string

	// BodyLines are the raw lines of the main region.
	BodyLines []string
}

// LabeledValue preserves an unrecognized requirement field verbatim.
type LabeledValue struct {
	Label string
	Value string
}

// RequirementRecord is a structured requirement block parsed from an
// ID-prefixed heading and its labeled fields.
type RequirementRecord struct {
	ID                 string // never empty; matches {PREFIX}-{MODULE}-{NNN}
	Name               string
	Description        string // populated by both Statement: and Description:
	Rationale          string
	Priority           string
	SafetyClass        string
	VerificationMethod string
	AcceptanceCriteria []string       // bullet lines, source order
	OtherFields        []LabeledValue // unrecognized labels, insertion order
}

// ElementKind discriminates DocumentElement variants.
type ElementKind int

// DocumentElement variants.
const (
	KindHeading ElementKind = iota
	KindParagraph
	KindTable
	KindRequirement
	KindImage
	KindCodeBlock
)

// DocumentElement is a tagged union over body content. Exactly one payload
// pointer matching Kind is non-nil.
type DocumentElement struct {
	Kind        ElementKind
	Heading     *HeadingElement
	Paragraph   *ParagraphElement
	Table       *TableElement
	Requirement *RequirementRecord
	Image       *ImageElement
	Code        *CodeBlockElement
}

// HeadingElement is a body heading with its page-break decision.
type HeadingElement struct {
	Level           int // 1-5
	Text            string
	PageBreakBefore bool
}

// ParagraphElement is a run of inline-parsed text.
type ParagraphElement struct {
	Runs   []TextRun
	Bullet bool // simple top-level "- " bullet
}

// TableElement is a pipe table with computed column widths.
type TableElement struct {
	Headers      []string
	Rows         [][]string
	ColumnWidths []int // twips, sums exactly to the configured table width
}

// ImageElement references a rendered or authored raster image.
type ImageElement struct {
	Path          string
	DisplayWidth  int // pixels
	DisplayHeight int // pixels
	AltText       string
}

// CodeBlockElement is a verbatim fenced code block, including diagram
// sources that failed to render.
type CodeBlockElement struct {
	Language string
	Lines    []string
}

// TextRun is an immutable styled segment of a line.
type TextRun struct {
	Text string
	Bold bool
	Code bool
	Font string
}

// FontSet names the font families applied per detected script.
type FontSet struct {
	Latin string
	CJK   string
	Code  string
}

// DefaultFonts returns the standard font selection.
func DefaultFonts() FontSet {
	return FontSet{Latin: "Calibri", CJK: "SimSun", Code: "Consolas"}
}

// Input contains conversion parameters for a single document.
type Input struct {
	Markdown string // Markdown content (required)
	Title    string // overrides the cover title in headers (optional)
	CacheDir string // diagram render cache; empty = per-run temp dir
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout          time.Duration
	fonts            FontSet
	tableWidth       int
	minColumnWidth   int
	maxImageWidth    int
	maxImageHeight   int
	renderCmd        string
	renderArgs       []string
	renderWorkers    int
	fallbackNoBinary bool
	log              *zap.Logger
}

func defaultServiceConfig() serviceConfig {
	return serviceConfig{
		timeout:        defaultTimeout,
		fonts:          DefaultFonts(),
		tableWidth:     DefaultTableWidth,
		minColumnWidth: DefaultMinColumnWidth,
		maxImageWidth:  DefaultMaxImageWidth,
		maxImageHeight: DefaultMaxImageHeight,
		renderCmd:      defaultRenderCommand,
		renderWorkers:  defaultRenderWorkers,
		log:            zap.NewNop(),
	}
}

// WithTimeout sets the per-diagram render timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2docx: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithLogger sets the structured logger. Nil restores the no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log == nil {
			log = zap.NewNop()
		}
		s.cfg.log = log
	}
}

// WithFonts overrides the per-script font selection. Empty fields keep
// their defaults.
func WithFonts(fonts FontSet) Option {
	return func(s *Service) {
		if fonts.Latin != "" {
			s.cfg.fonts.Latin = fonts.Latin
		}
		if fonts.CJK != "" {
			s.cfg.fonts.CJK = fonts.CJK
		}
		if fonts.Code != "" {
			s.cfg.fonts.Code = fonts.Code
		}
	}
}

// WithRenderCommand overrides the external diagram renderer invocation.
// Extra args are passed before the input/output flags.
func WithRenderCommand(cmd string, args ...string) Option {
	return func(s *Service) {
		if cmd != "" {
			s.cfg.renderCmd = cmd
		}
		s.cfg.renderArgs = args
	}
}

// WithRenderConcurrency bounds parallel diagram renders.
// Panics if n <= 0 (programmer error).
func WithRenderConcurrency(n int) Option {
	if n <= 0 {
		panic("md2docx: WithRenderConcurrency must be positive")
	}
	return func(s *Service) {
		s.cfg.renderWorkers = n
	}
}

// WithCodeFallbackOnMissingRenderer downgrades a missing renderer binary
// from a fatal error to per-diagram code-block fallback.
func WithCodeFallbackOnMissingRenderer(enabled bool) Option {
	return func(s *Service) {
		s.cfg.fallbackNoBinary = enabled
	}
}

// WithImageCaps overrides the maximum display size for images in pixels at
// 96 DPI. Zero values keep the defaults.
func WithImageCaps(maxWidth, maxHeight int) Option {
	return func(s *Service) {
		if maxWidth > 0 {
			s.cfg.maxImageWidth = maxWidth
		}
		if maxHeight > 0 {
			s.cfg.maxImageHeight = maxHeight
		}
	}
}

// WithTableLayout overrides the total table width and minimum column width
// in twips. Zero values keep the defaults.
func WithTableLayout(total, minColumn int) Option {
	return func(s *Service) {
		if total > 0 {
			s.cfg.tableWidth = total
		}
		if minColumn > 0 {
			s.cfg.minColumnWidth = minColumn
		}
	}
}
