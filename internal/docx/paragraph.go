package docx

import (
	"strconv"

	"github.com/beevik/etree"
)

// Run is a styled text segment.
type Run struct {
	Text           string
	Bold           bool
	Font           string // per-run font family; empty uses the style font
	SizeHalfPoints int    // 0 uses the style size
	Color          string // hex RGB, empty for automatic
}

// Paragraph is a block of runs with paragraph-level properties.
type Paragraph struct {
	Style           string // style id: Title, Subtitle, Heading1..Heading5, Code
	Alignment       string // "", "center", "right"
	PageBreakBefore bool
	IndentLeft      int // twips
	Runs            []Run
}

// Cell holds the paragraphs of one table cell.
type Cell struct {
	Paragraphs []Paragraph
	Shading    string // hex fill, empty for none
}

// Table is a grid of cells with fixed column widths in twips.
type Table struct {
	ColumnWidths []int
	Rows         [][]Cell
}

// AddParagraph appends a paragraph to the document body.
func (d *Document) AddParagraph(p Paragraph) {
	d.body = append(d.body, buildParagraph(p))
}

// AddTable appends a bordered fixed-layout table to the document body.
func (d *Document) AddTable(t Table) {
	tbl := etree.NewElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	total := 0
	for _, w := range t.ColumnWidths {
		total += w
	}
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", strconv.Itoa(total))
	tblW.CreateAttr("w:type", "dxa")
	layout := tblPr.CreateElement("w:tblLayout")
	layout.CreateAttr("w:type", "fixed")
	addTableBorders(tblPr)

	grid := tbl.CreateElement("w:tblGrid")
	for _, w := range t.ColumnWidths {
		col := grid.CreateElement("w:gridCol")
		col.CreateAttr("w:w", strconv.Itoa(w))
	}

	for _, row := range t.Rows {
		tr := tbl.CreateElement("w:tr")
		for i, cell := range row {
			tc := tr.CreateElement("w:tc")
			tcPr := tc.CreateElement("w:tcPr")
			tcW := tcPr.CreateElement("w:tcW")
			width := 0
			if i < len(t.ColumnWidths) {
				width = t.ColumnWidths[i]
			}
			tcW.CreateAttr("w:w", strconv.Itoa(width))
			tcW.CreateAttr("w:type", "dxa")
			if cell.Shading != "" {
				shd := tcPr.CreateElement("w:shd")
				shd.CreateAttr("w:val", "clear")
				shd.CreateAttr("w:color", "auto")
				shd.CreateAttr("w:fill", cell.Shading)
			}
			if len(cell.Paragraphs) == 0 {
				tc.CreateElement("w:p")
				continue
			}
			for _, p := range cell.Paragraphs {
				tc.AddChild(buildParagraph(p))
			}
		}
	}

	d.body = append(d.body, tbl)
}

// AddTOCField appends a native auto-updating table-of-contents field over
// the given heading levels, followed by a note paragraph telling the
// reader to refresh the field for page numbers.
func (d *Document) AddTOCField(fromLevel, toLevel int, note string) {
	p := etree.NewElement("w:p")

	begin := p.CreateElement("w:r").CreateElement("w:fldChar")
	begin.CreateAttr("w:fldCharType", "begin")
	begin.CreateAttr("w:dirty", "true")

	instr := p.CreateElement("w:r").CreateElement("w:instrText")
	instr.CreateAttr("xml:space", "preserve")
	instr.SetText(` TOC \o "` + strconv.Itoa(fromLevel) + `-` + strconv.Itoa(toLevel) + `" \h \z \u `)

	p.CreateElement("w:r").CreateElement("w:fldChar").CreateAttr("w:fldCharType", "separate")

	placeholder := p.CreateElement("w:r").CreateElement("w:t")
	placeholder.SetText(note)

	p.CreateElement("w:r").CreateElement("w:fldChar").CreateAttr("w:fldCharType", "end")

	d.body = append(d.body, p)
}

// buildParagraph converts a Paragraph into a <w:p> element.
func buildParagraph(p Paragraph) *etree.Element {
	el := etree.NewElement("w:p")

	hasProps := p.Style != "" || p.Alignment != "" || p.PageBreakBefore || p.IndentLeft > 0
	if hasProps {
		pPr := el.CreateElement("w:pPr")
		if p.Style != "" {
			style := pPr.CreateElement("w:pStyle")
			style.CreateAttr("w:val", p.Style)
		}
		if p.PageBreakBefore {
			pPr.CreateElement("w:pageBreakBefore")
		}
		if p.IndentLeft > 0 {
			ind := pPr.CreateElement("w:ind")
			ind.CreateAttr("w:left", strconv.Itoa(p.IndentLeft))
		}
		if p.Alignment != "" {
			jc := pPr.CreateElement("w:jc")
			jc.CreateAttr("w:val", p.Alignment)
		}
	}

	for _, run := range p.Runs {
		el.AddChild(buildRun(run))
	}
	return el
}

// buildRun converts a Run into a <w:r> element.
func buildRun(r Run) *etree.Element {
	el := etree.NewElement("w:r")

	if r.Bold || r.Font != "" || r.SizeHalfPoints > 0 || r.Color != "" {
		rPr := el.CreateElement("w:rPr")
		if r.Font != "" {
			fonts := rPr.CreateElement("w:rFonts")
			fonts.CreateAttr("w:ascii", r.Font)
			fonts.CreateAttr("w:hAnsi", r.Font)
			fonts.CreateAttr("w:eastAsia", r.Font)
		}
		if r.Bold {
			rPr.CreateElement("w:b")
		}
		if r.Color != "" {
			color := rPr.CreateElement("w:color")
			color.CreateAttr("w:val", r.Color)
		}
		if r.SizeHalfPoints > 0 {
			sz := rPr.CreateElement("w:sz")
			sz.CreateAttr("w:val", strconv.Itoa(r.SizeHalfPoints))
		}
	}

	t := el.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(r.Text)
	return el
}

// addTableBorders writes single-line borders on all sides and insides.
func addTableBorders(tblPr *etree.Element) {
	borders := tblPr.CreateElement("w:tblBorders")
	for _, side := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
		b := borders.CreateElement("w:" + side)
		b.CreateAttr("w:val", "single")
		b.CreateAttr("w:sz", "4")
		b.CreateAttr("w:space", "0")
		b.CreateAttr("w:color", "auto")
	}
}

// pageField emits the run sequence for a dynamic field like PAGE or
// NUMPAGES into the given paragraph.
func pageField(p *etree.Element, instruction string) {
	p.CreateElement("w:r").CreateElement("w:fldChar").CreateAttr("w:fldCharType", "begin")
	instr := p.CreateElement("w:r").CreateElement("w:instrText")
	instr.CreateAttr("xml:space", "preserve")
	instr.SetText(" " + instruction + " ")
	p.CreateElement("w:r").CreateElement("w:fldChar").CreateAttr("w:fldCharType", "separate")
	p.CreateElement("w:r").CreateElement("w:t").SetText("1")
	p.CreateElement("w:r").CreateElement("w:fldChar").CreateAttr("w:fldCharType", "end")
}
