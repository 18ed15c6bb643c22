// Package docx assembles WordprocessingML documents: a zip container with
// XML parts for the body, styles, header, footer, and embedded media.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

// OOXML namespaces.
const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsCT  = "http://schemas.openxmlformats.org/package/2006/content-types"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCP  = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC  = "http://purl.org/dc/elements/1.1/"
)

// Relationship type URIs.
const (
	relTypeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCore     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeApp      = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relTypeStyles   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeHeader   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relTypeFooter   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relTypeImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

// US Letter page geometry in twips.
const (
	pageWidth    = 12240
	pageHeight   = 15840
	pageMargin   = 1440
	headerMargin = 720

	// emusPerPixel converts 96 DPI pixels to English Metric Units.
	emusPerPixel = 9525
)

// Properties populate docProps/core.xml.
type Properties struct {
	Title   string
	Creator string
	Version string
}

// Fonts names the default document fonts written into styles.xml.
type Fonts struct {
	Body     string
	EastAsia string
	Code     string
}

// imagePart is an embedded media file with its relationship id.
type imagePart struct {
	relID string
	name  string
	data  []byte
}

// Document accumulates body content and produces the final container.
type Document struct {
	props       Properties
	fonts       Fonts
	body        []*etree.Element
	images      []imagePart
	headerTitle string
	nextDocPrID int
}

// NewDocument creates an empty document with the given metadata and fonts.
func NewDocument(props Properties, fonts Fonts) *Document {
	if fonts.Body == "" {
		fonts.Body = "Calibri"
	}
	if fonts.EastAsia == "" {
		fonts.EastAsia = "SimSun"
	}
	if fonts.Code == "" {
		fonts.Code = "Consolas"
	}
	return &Document{props: props, fonts: fonts, nextDocPrID: 1}
}

// SetHeaderTitle sets the running-header text for the main sections.
func (d *Document) SetHeaderTitle(title string) {
	d.headerTitle = title
}

// AddImage embeds an image file and appends a centered inline drawing
// paragraph sized to the given display dimensions in pixels.
func (d *Document) AddImage(path string, widthPx, heightPx int, alt string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image %s: %w", path, err)
	}

	n := len(d.images) + 1
	part := imagePart{
		relID: "rIdImg" + strconv.Itoa(n),
		name:  "image" + strconv.Itoa(n) + ".png",
		data:  data,
	}
	d.images = append(d.images, part)

	d.body = append(d.body, d.drawingParagraph(part.relID, widthPx*emusPerPixel, heightPx*emusPerPixel, alt))
	return nil
}

// AddPageBreak appends an explicit page break.
func (d *Document) AddPageBreak() {
	p := etree.NewElement("w:p")
	br := p.CreateElement("w:r").CreateElement("w:br")
	br.CreateAttr("w:type", "page")
	d.body = append(d.body, p)
}

// EndCoverSection closes the cover page as its own section with no header
// or footer references. Content added afterwards belongs to the main
// section, which carries the running header and page-numbered footer.
func (d *Document) EndCoverSection() {
	p := etree.NewElement("w:p")
	pPr := p.CreateElement("w:pPr")
	sectPr := pPr.CreateElement("w:sectPr")
	addPageGeometry(sectPr)
	d.body = append(d.body, p)
}

// Bytes builds every part and returns the zipped container.
func (d *Document) Bytes() ([]byte, error) {
	parts := []struct {
		name string
		doc  *etree.Document
	}{
		{"[Content_Types].xml", d.contentTypesXML()},
		{"_rels/.rels", d.packageRelsXML()},
		{"word/document.xml", d.documentXML()},
		{"word/_rels/document.xml.rels", d.documentRelsXML()},
		{"word/styles.xml", d.stylesXML()},
		{"word/header1.xml", d.headerXML()},
		{"word/footer1.xml", d.footerXML()},
		{"docProps/core.xml", d.coreXML()},
		{"docProps/app.xml", d.appXML()},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("creating part %s: %w", part.name, err)
		}
		part.doc.Indent(0)
		if _, err := part.doc.WriteTo(w); err != nil {
			return nil, fmt.Errorf("writing part %s: %w", part.name, err)
		}
	}

	for _, img := range d.images {
		w, err := zw.Create("word/media/" + img.name)
		if err != nil {
			return nil, fmt.Errorf("creating media part %s: %w", img.name, err)
		}
		if _, err := w.Write(img.data); err != nil {
			return nil, fmt.Errorf("writing media part %s: %w", img.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing container: %w", err)
	}
	return buf.Bytes(), nil
}

// documentXML builds word/document.xml with the final section properties
// referencing the shared header and footer.
func (d *Document) documentXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("w:document")
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateAttr("xmlns:a", nsA)
	root.CreateAttr("xmlns:pic", nsPic)

	body := root.CreateElement("w:body")
	for _, el := range d.body {
		body.AddChild(el)
	}

	sectPr := body.CreateElement("w:sectPr")
	hdr := sectPr.CreateElement("w:headerReference")
	hdr.CreateAttr("w:type", "default")
	hdr.CreateAttr("r:id", "rIdHdr")
	ftr := sectPr.CreateElement("w:footerReference")
	ftr.CreateAttr("w:type", "default")
	ftr.CreateAttr("r:id", "rIdFtr")
	addPageGeometry(sectPr)

	return doc
}

// addPageGeometry appends page size and margins to a sectPr.
func addPageGeometry(sectPr *etree.Element) {
	pgSz := sectPr.CreateElement("w:pgSz")
	pgSz.CreateAttr("w:w", strconv.Itoa(pageWidth))
	pgSz.CreateAttr("w:h", strconv.Itoa(pageHeight))

	pgMar := sectPr.CreateElement("w:pgMar")
	pgMar.CreateAttr("w:top", strconv.Itoa(pageMargin))
	pgMar.CreateAttr("w:right", strconv.Itoa(pageMargin))
	pgMar.CreateAttr("w:bottom", strconv.Itoa(pageMargin))
	pgMar.CreateAttr("w:left", strconv.Itoa(pageMargin))
	pgMar.CreateAttr("w:header", strconv.Itoa(headerMargin))
	pgMar.CreateAttr("w:footer", strconv.Itoa(headerMargin))
	pgMar.CreateAttr("w:gutter", "0")
}

// drawingParagraph wraps an inline picture in a centered paragraph.
func (d *Document) drawingParagraph(relID string, cxEMU, cyEMU int, alt string) *etree.Element {
	id := d.nextDocPrID
	d.nextDocPrID++

	p := etree.NewElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", "center")

	drawing := p.CreateElement("w:r").CreateElement("w:drawing")
	inline := drawing.CreateElement("wp:inline")
	for _, dist := range []string{"distT", "distB", "distL", "distR"} {
		inline.CreateAttr(dist, "0")
	}

	extent := inline.CreateElement("wp:extent")
	extent.CreateAttr("cx", strconv.Itoa(cxEMU))
	extent.CreateAttr("cy", strconv.Itoa(cyEMU))

	docPr := inline.CreateElement("wp:docPr")
	docPr.CreateAttr("id", strconv.Itoa(id))
	docPr.CreateAttr("name", "Picture "+strconv.Itoa(id))
	docPr.CreateAttr("descr", alt)

	graphic := inline.CreateElement("a:graphic")
	graphicData := graphic.CreateElement("a:graphicData")
	graphicData.CreateAttr("uri", nsPic)

	picture := graphicData.CreateElement("pic:pic")
	nv := picture.CreateElement("pic:nvPicPr")
	cNvPr := nv.CreateElement("pic:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", "Picture "+strconv.Itoa(id))
	nv.CreateElement("pic:cNvPicPr")

	blipFill := picture.CreateElement("pic:blipFill")
	blip := blipFill.CreateElement("a:blip")
	blip.CreateAttr("r:embed", relID)
	blipFill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := picture.CreateElement("pic:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", "0")
	off.CreateAttr("y", "0")
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.Itoa(cxEMU))
	ext.CreateAttr("cy", strconv.Itoa(cyEMU))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")

	return p
}

// newXMLDoc creates an etree document with the standard XML declaration.
func newXMLDoc() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}
