// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to
// error messages.
package hints

import "strings"

// ForMissingRenderer returns hints for a missing diagram renderer binary.
func ForMissingRenderer(cmd string) string {
	hints := []string{
		"install mermaid-cli: npm install -g @mermaid-js/mermaid-cli",
	}
	if cmd != "" && cmd != "mmdc" {
		hints = []string{"check that " + cmd + " is on PATH, or drop --render-cmd to use mmdc"}
	}
	hints = append(hints, "or pass --allow-code-fallback to emit diagram sources as code blocks")
	return formatHints(hints)
}

// ForMissingConfig returns hints for a config file that was not found.
func ForMissingConfig() string {
	return formatHints([]string{"create md2docx.yaml in the working directory or pass --config <path>"})
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	var b strings.Builder
	for _, h := range hints {
		b.WriteString("\n  hint: ")
		b.WriteString(h)
	}
	return b.String()
}
