package md2docx

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown = errors.New("markdown content cannot be empty")
	ErrAssembly      = errors.New("document assembly failed")

	// Diagram rendering errors.
	ErrRendererNotFound = errors.New("diagram renderer binary not found")
	ErrDiagramRender    = errors.New("diagram rendering failed")
	ErrDiagramTimeout   = errors.New("diagram rendering timed out")

	// Configuration validation errors.
	ErrInvalidTableWidth = errors.New("invalid table width")
)
