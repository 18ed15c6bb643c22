// Package md2docx converts constrained Markdown requirement documents to DOCX.
//
// The input dialect covers a cover block (title, "For {project}" subtitle,
// version, author, organization, date), a regenerated table of contents, an
// optional revision-history table, and a body of headings, pipe tables,
// fenced code blocks, mermaid diagrams, and ID-prefixed requirement blocks
// with labeled fields.
//
// Basic usage:
//
//	svc := md2docx.New(md2docx.WithTimeout(60 * time.Second))
//	out, err := svc.Convert(ctx, md2docx.Input{Markdown: content})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("spec.docx", out, 0o644)
//
// Mermaid diagrams are rendered through an external renderer (mmdc by
// default) with content-addressed caching; identical diagram sources render
// at most once per run. Render failures degrade to verbatim code blocks
// rather than aborting the conversion.
package md2docx
