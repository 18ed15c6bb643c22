package md2docx

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docfoundry/md2docx/internal/docx"
	"github.com/docfoundry/md2docx/internal/fileutil"
)

// Revision-history column order is fixed regardless of the source table.
var revisionColumns = []string{"Name", "Date", "Reason For Changes", "Version"}

const tocRefreshNote = "Right-click and choose \"Update Field\" to show page numbers."

// assembler produces the sectioned output document.
type assembler interface {
	Assemble(ctx context.Context, structure *DocumentStructure, elements []DocumentElement) ([]byte, error)
}

// docxAssembler renders cover, TOC, revision history, and body into a DOCX
// container.
type docxAssembler struct {
	cfg   serviceConfig
	title string
	log   *zap.Logger
}

// Compile-time interface check.
var _ assembler = (*docxAssembler)(nil)

func newDocxAssembler(cfg serviceConfig, title string) *docxAssembler {
	return &docxAssembler{cfg: cfg, title: title, log: cfg.log}
}

// Assemble writes the four regions in fixed order. The cover page is its
// own section without header or footer; the TOC, revision history, and
// body share a running header with the document title and a "Page X of Y"
// footer.
func (a *docxAssembler) Assemble(ctx context.Context, structure *DocumentStructure, elements []DocumentElement) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cover := structure.Cover
	title := a.title
	if title == "" {
		title = cover.Title
	}

	doc := docx.NewDocument(
		docx.Properties{Title: title, Creator: cover.Author, Version: cover.Version},
		docx.Fonts{Body: a.cfg.fonts.Latin, EastAsia: a.cfg.fonts.CJK, Code: a.cfg.fonts.Code},
	)
	doc.SetHeaderTitle(title)

	a.addCover(doc, cover)
	doc.EndCoverSection()

	a.addTOC(doc)
	doc.AddPageBreak()

	a.addRevisionHistory(doc, structure.RevisionRows)
	doc.AddPageBreak()

	for i := range elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.addElement(doc, &elements[i]); err != nil {
			return nil, err
		}
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssembly, err)
	}
	return out, nil
}

// addCover centers the cover metadata. Absent fields are skipped.
func (a *docxAssembler) addCover(doc *docx.Document, cover CoverInfo) {
	centered := func(text, style string) {
		if text == "" {
			return
		}
		doc.AddParagraph(docx.Paragraph{
			Style:     style,
			Alignment: "center",
			Runs:      a.styledRuns(parseInline(text, a.cfg.fonts)),
		})
	}

	// Push the title block down the page a little.
	for i := 0; i < 6; i++ {
		doc.AddParagraph(docx.Paragraph{})
	}
	centered(cover.Title, "Title")
	centered(cover.Subtitle, "Subtitle")
	doc.AddParagraph(docx.Paragraph{})
	centered(cover.Version, "")
	centered(cover.Author, "")
	centered(cover.Organization, "")
	centered(cover.Date, "")
}

// addTOC emits a TOC heading, the auto-updating field over heading levels
// 1-4, and the refresh note.
func (a *docxAssembler) addTOC(doc *docx.Document) {
	doc.AddParagraph(docx.Paragraph{
		Style: "Heading1",
		Runs:  []docx.Run{{Text: "Table of Contents", Font: a.cfg.fonts.Latin}},
	})
	doc.AddTOCField(1, 4, tocRefreshNote)
}

// addRevisionHistory renders the captured revision rows under the fixed
// column order. A document without a revision section gets the header row
// only.
func (a *docxAssembler) addRevisionHistory(doc *docx.Document, rows [][]string) {
	doc.AddParagraph(docx.Paragraph{
		Style: "Heading1",
		Runs:  []docx.Run{{Text: "Revision History", Font: a.cfg.fonts.Latin}},
	})

	// The source table's own header row is replaced by the fixed columns.
	// When its headers are recognizable the data cells follow them, so a
	// source table authored in a different column order still lands each
	// value under the right header; otherwise the order is positional.
	var data [][]string
	var order []int
	if len(rows) > 0 {
		order = revisionOrder(rows[0])
		for _, row := range rows[1:] {
			data = append(data, reorderRow(row, order))
		}
	}

	widths := columnWidths(revisionColumns, data, a.cfg.tableWidth, a.cfg.minColumnWidth)
	table := docx.Table{ColumnWidths: widths}
	table.Rows = append(table.Rows, a.headerCells(revisionColumns))
	for _, row := range data {
		table.Rows = append(table.Rows, a.textCells(row, len(revisionColumns)))
	}
	doc.AddTable(table)
}

// revisionOrder locates each fixed revision column in the source header
// row. It returns nil unless every fixed column is present, keeping
// positional order for partial or unrecognized headers.
func revisionOrder(header []string) []int {
	order := make([]int, len(revisionColumns))
	for i, fixed := range revisionColumns {
		order[i] = -1
		for j, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), fixed) {
				order[i] = j
				break
			}
		}
		if order[i] < 0 {
			return nil
		}
	}
	return order
}

// reorderRow rearranges one data row into the fixed column order. A nil
// order returns the row unchanged.
func reorderRow(row []string, order []int) []string {
	if order == nil {
		return row
	}
	out := make([]string, len(order))
	for i, j := range order {
		if j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}

// addElement dispatches one body element to the document builder.
func (a *docxAssembler) addElement(doc *docx.Document, el *DocumentElement) error {
	switch el.Kind {
	case KindHeading:
		h := el.Heading
		doc.AddParagraph(docx.Paragraph{
			Style:           fmt.Sprintf("Heading%d", h.Level),
			PageBreakBefore: h.PageBreakBefore,
			Runs:            a.styledRuns(parseInline(h.Text, a.cfg.fonts)),
		})

	case KindParagraph:
		p := el.Paragraph
		para := docx.Paragraph{Runs: a.styledRuns(p.Runs)}
		if p.Bullet {
			para.IndentLeft = 360
			para.Runs = append([]docx.Run{{Text: "• ", Font: a.cfg.fonts.Latin}}, para.Runs...)
		}
		doc.AddParagraph(para)

	case KindTable:
		t := el.Table
		table := docx.Table{ColumnWidths: t.ColumnWidths}
		table.Rows = append(table.Rows, a.headerCells(t.Headers))
		for _, row := range t.Rows {
			table.Rows = append(table.Rows, a.textCells(row, len(t.Headers)))
		}
		doc.AddTable(table)

	case KindRequirement:
		a.addRequirementTable(doc, el.Requirement)

	case KindImage:
		img := el.Image
		if !fileutil.FileExists(img.Path) {
			// Authored image references may point nowhere; a placeholder
			// keeps the conversion going.
			a.log.Warn("image file missing at assembly, inserting placeholder",
				zap.String("path", img.Path))
			doc.AddParagraph(docx.Paragraph{
				Alignment: "center",
				Runs: []docx.Run{{
					Text:  fmt.Sprintf("[image not found: %s]", img.Path),
					Font:  a.cfg.fonts.Latin,
					Color: "808080",
				}},
			})
			return nil
		}
		if err := doc.AddImage(img.Path, img.DisplayWidth, img.DisplayHeight, img.AltText); err != nil {
			return fmt.Errorf("%w: %v", ErrAssembly, err)
		}

	case KindCodeBlock:
		for _, line := range el.Code.Lines {
			doc.AddParagraph(docx.Paragraph{
				Style: "Code",
				Runs:  []docx.Run{{Text: line, Font: a.cfg.fonts.Code}},
			})
		}
	}
	return nil
}

// addRequirementTable renders a requirement record as a two-column
// label/value table headed by the requirement ID and name.
func (a *docxAssembler) addRequirementTable(doc *docx.Document, rec *RequirementRecord) {
	labelWidth := a.cfg.tableWidth / 4
	widths := []int{labelWidth, a.cfg.tableWidth - labelWidth}
	table := docx.Table{ColumnWidths: widths}

	heading := rec.ID
	if rec.Name != "" {
		heading += " " + rec.Name
	}
	table.Rows = append(table.Rows, []docx.Cell{
		{Shading: "D9D9D9", Paragraphs: []docx.Paragraph{{
			Runs: []docx.Run{{Text: "Requirement", Bold: true, Font: a.cfg.fonts.Latin}},
		}}},
		{Shading: "D9D9D9", Paragraphs: []docx.Paragraph{{
			Runs: a.boldRuns(heading),
		}}},
	})

	addRow := func(label, value string) {
		if value == "" {
			return
		}
		table.Rows = append(table.Rows, []docx.Cell{
			{Paragraphs: []docx.Paragraph{{Runs: a.boldRuns(label)}}},
			{Paragraphs: []docx.Paragraph{{Runs: a.styledRuns(parseInline(value, a.cfg.fonts))}}},
		})
	}

	addRow("Description", rec.Description)
	addRow("Rationale", rec.Rationale)
	addRow("Priority", rec.Priority)
	addRow("Safety Class", rec.SafetyClass)
	addRow("Verification Method", rec.VerificationMethod)

	if len(rec.AcceptanceCriteria) > 0 {
		var paras []docx.Paragraph
		for _, criterion := range rec.AcceptanceCriteria {
			runs := append([]docx.Run{{Text: "• ", Font: a.cfg.fonts.Latin}},
				a.styledRuns(parseInline(criterion, a.cfg.fonts))...)
			paras = append(paras, docx.Paragraph{Runs: runs})
		}
		table.Rows = append(table.Rows, []docx.Cell{
			{Paragraphs: []docx.Paragraph{{Runs: a.boldRuns("Acceptance Criteria")}}},
			{Paragraphs: paras},
		})
	}

	for _, field := range rec.OtherFields {
		addRow(field.Label, field.Value)
	}

	doc.AddTable(table)
}

// headerCells builds a bold, shaded header row.
func (a *docxAssembler) headerCells(headers []string) []docx.Cell {
	cells := make([]docx.Cell, len(headers))
	for i, h := range headers {
		cells[i] = docx.Cell{
			Shading: "D9D9D9",
			Paragraphs: []docx.Paragraph{{
				Runs: []docx.Run{{Text: h, Bold: true, Font: a.cfg.fonts.Select(h)}},
			}},
		}
	}
	return cells
}

// textCells builds a body row padded or truncated to the column count.
func (a *docxAssembler) textCells(row []string, cols int) []docx.Cell {
	cells := make([]docx.Cell, cols)
	for i := 0; i < cols; i++ {
		text := ""
		if i < len(row) {
			text = row[i]
		}
		cells[i] = docx.Cell{Paragraphs: []docx.Paragraph{{
			Runs: a.styledRuns(parseInline(text, a.cfg.fonts)),
		}}}
	}
	return cells
}

// styledRuns converts parsed TextRuns into docx runs.
func (a *docxAssembler) styledRuns(runs []TextRun) []docx.Run {
	out := make([]docx.Run, len(runs))
	for i, r := range runs {
		out[i] = docx.Run{Text: r.Text, Bold: r.Bold, Font: r.Font}
		if r.Code {
			out[i].SizeHalfPoints = 18
		}
	}
	return out
}

// boldRuns wraps plain text in a single bold run with script-aware font.
func (a *docxAssembler) boldRuns(text string) []docx.Run {
	return []docx.Run{{Text: text, Bold: true, Font: a.cfg.fonts.Select(text)}}
}
