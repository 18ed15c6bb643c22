package docx

import (
	"strconv"

	"github.com/beevik/etree"
)

// headingSizes maps heading levels to font sizes in half-points.
var headingSizes = [...]int{0, 36, 30, 26, 24, 22}

// stylesXML builds word/styles.xml: Normal, Title, Subtitle, Heading1-5,
// and a Code paragraph style with shading.
func (d *Document) stylesXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("w:styles")
	root.CreateAttr("xmlns:w", nsW)

	docDefaults := root.CreateElement("w:docDefaults")
	rPrDefault := docDefaults.CreateElement("w:rPrDefault").CreateElement("w:rPr")
	fonts := rPrDefault.CreateElement("w:rFonts")
	fonts.CreateAttr("w:ascii", d.fonts.Body)
	fonts.CreateAttr("w:hAnsi", d.fonts.Body)
	fonts.CreateAttr("w:eastAsia", d.fonts.EastAsia)
	sz := rPrDefault.CreateElement("w:sz")
	sz.CreateAttr("w:val", "22")

	addStyle(root, "Normal", "Normal", func(style *etree.Element) {
		style.CreateAttr("w:default", "1")
	})

	addStyle(root, "Title", "Title", func(style *etree.Element) {
		pPr := style.CreateElement("w:pPr")
		jc := pPr.CreateElement("w:jc")
		jc.CreateAttr("w:val", "center")
		rPr := style.CreateElement("w:rPr")
		rPr.CreateElement("w:b")
		sz := rPr.CreateElement("w:sz")
		sz.CreateAttr("w:val", "56")
	})

	addStyle(root, "Subtitle", "Subtitle", func(style *etree.Element) {
		pPr := style.CreateElement("w:pPr")
		jc := pPr.CreateElement("w:jc")
		jc.CreateAttr("w:val", "center")
		rPr := style.CreateElement("w:rPr")
		sz := rPr.CreateElement("w:sz")
		sz.CreateAttr("w:val", "32")
	})

	for level := 1; level <= 5; level++ {
		id := "Heading" + strconv.Itoa(level)
		name := "heading " + strconv.Itoa(level)
		size := headingSizes[level]
		outline := strconv.Itoa(level - 1)
		addStyle(root, id, name, func(style *etree.Element) {
			pPr := style.CreateElement("w:pPr")
			spacing := pPr.CreateElement("w:spacing")
			spacing.CreateAttr("w:before", "240")
			spacing.CreateAttr("w:after", "120")
			lvl := pPr.CreateElement("w:outlineLvl")
			lvl.CreateAttr("w:val", outline)
			rPr := style.CreateElement("w:rPr")
			rPr.CreateElement("w:b")
			sz := rPr.CreateElement("w:sz")
			sz.CreateAttr("w:val", strconv.Itoa(size))
		})
	}

	addStyle(root, "Code", "Code", func(style *etree.Element) {
		pPr := style.CreateElement("w:pPr")
		shd := pPr.CreateElement("w:shd")
		shd.CreateAttr("w:val", "clear")
		shd.CreateAttr("w:color", "auto")
		shd.CreateAttr("w:fill", "F2F2F2")
		rPr := style.CreateElement("w:rPr")
		fonts := rPr.CreateElement("w:rFonts")
		fonts.CreateAttr("w:ascii", d.fonts.Code)
		fonts.CreateAttr("w:hAnsi", d.fonts.Code)
		sz := rPr.CreateElement("w:sz")
		sz.CreateAttr("w:val", "18")
	})

	return doc
}

// addStyle appends one paragraph style with the common boilerplate.
func addStyle(root *etree.Element, id, name string, fill func(*etree.Element)) {
	style := root.CreateElement("w:style")
	style.CreateAttr("w:type", "paragraph")
	style.CreateAttr("w:styleId", id)
	nameEl := style.CreateElement("w:name")
	nameEl.CreateAttr("w:val", name)
	if id != "Normal" {
		based := style.CreateElement("w:basedOn")
		based.CreateAttr("w:val", "Normal")
	}
	fill(style)
}

// headerXML builds word/header1.xml with the document title right-aligned.
func (d *Document) headerXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("w:hdr")
	root.CreateAttr("xmlns:w", nsW)

	p := root.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", "right")

	r := p.CreateElement("w:r")
	rPr := r.CreateElement("w:rPr")
	sz := rPr.CreateElement("w:sz")
	sz.CreateAttr("w:val", "18")
	t := r.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(d.headerTitle)

	return doc
}

// footerXML builds word/footer1.xml with a centered "Page X of Y" line
// using dynamic PAGE and NUMPAGES fields.
func (d *Document) footerXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("w:ftr")
	root.CreateAttr("xmlns:w", nsW)

	p := root.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", "center")

	literal := func(text string) {
		r := p.CreateElement("w:r")
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(text)
	}
	literal("Page ")
	pageField(p, "PAGE")
	literal(" of ")
	pageField(p, "NUMPAGES")

	return doc
}

// contentTypesXML builds [Content_Types].xml.
func (d *Document) contentTypesXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", nsCT)

	defaults := [][2]string{
		{"rels", "application/vnd.openxmlformats-package.relationships+xml"},
		{"xml", "application/xml"},
		{"png", "image/png"},
	}
	for _, def := range defaults {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", def[0])
		el.CreateAttr("ContentType", def[1])
	}

	overrides := [][2]string{
		{"/word/document.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"},
		{"/word/styles.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"},
		{"/word/header1.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"},
		{"/word/footer1.xml", "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"},
		{"/docProps/core.xml", "application/vnd.openxmlformats-package.core-properties+xml"},
		{"/docProps/app.xml", "application/vnd.openxmlformats-officedocument.extended-properties+xml"},
	}
	for _, ov := range overrides {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", ov[0])
		el.CreateAttr("ContentType", ov[1])
	}

	return doc
}

// packageRelsXML builds _rels/.rels.
func (d *Document) packageRelsXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRel)

	rels := [][3]string{
		{"rId1", relTypeDocument, "word/document.xml"},
		{"rId2", relTypeCore, "docProps/core.xml"},
		{"rId3", relTypeApp, "docProps/app.xml"},
	}
	for _, rel := range rels {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel[0])
		el.CreateAttr("Type", rel[1])
		el.CreateAttr("Target", rel[2])
	}

	return doc
}

// documentRelsXML builds word/_rels/document.xml.rels, including one image
// relationship per embedded media part.
func (d *Document) documentRelsXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsRel)

	rels := [][3]string{
		{"rIdStyles", relTypeStyles, "styles.xml"},
		{"rIdHdr", relTypeHeader, "header1.xml"},
		{"rIdFtr", relTypeFooter, "footer1.xml"},
	}
	for _, rel := range rels {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel[0])
		el.CreateAttr("Type", rel[1])
		el.CreateAttr("Target", rel[2])
	}
	for _, img := range d.images {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", img.relID)
		el.CreateAttr("Type", relTypeImage)
		el.CreateAttr("Target", "media/"+img.name)
	}

	return doc
}

// coreXML builds docProps/core.xml.
func (d *Document) coreXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("cp:coreProperties")
	root.CreateAttr("xmlns:cp", nsCP)
	root.CreateAttr("xmlns:dc", nsDC)

	root.CreateElement("dc:title").SetText(d.props.Title)
	root.CreateElement("dc:creator").SetText(d.props.Creator)
	if d.props.Version != "" {
		root.CreateElement("cp:version").SetText(d.props.Version)
	}

	return doc
}

// appXML builds docProps/app.xml.
func (d *Document) appXML() *etree.Document {
	doc := newXMLDoc()
	root := doc.CreateElement("Properties")
	root.CreateAttr("xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties")
	root.CreateElement("Application").SetText("md2docx")
	return doc
}
