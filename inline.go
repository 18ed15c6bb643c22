package md2docx

import "strings"

// parseInline splits a line into styled runs on **bold** and `code`
// delimiters. Unterminated delimiters are treated as literal text. Each
// run carries its own font so mixed-script lines render correctly.
func parseInline(text string, fonts FontSet) []TextRun {
	var runs []TextRun

	appendRun := func(segment string, bold, code bool) {
		if segment == "" {
			return
		}
		font := fonts.Select(segment)
		if code {
			font = fonts.Code
		}
		runs = append(runs, TextRun{Text: segment, Bold: bold, Code: code, Font: font})
	}

	var plain strings.Builder
	i := 0
	for i < len(text) {
		switch {
		case strings.HasPrefix(text[i:], "**"):
			end := strings.Index(text[i+2:], "**")
			if end < 0 {
				plain.WriteString(text[i : i+2])
				i += 2
				continue
			}
			appendRun(plain.String(), false, false)
			plain.Reset()
			appendRun(text[i+2:i+2+end], true, false)
			i += end + 4
		case text[i] == '`':
			end := strings.IndexByte(text[i+1:], '`')
			if end < 0 {
				plain.WriteByte('`')
				i++
				continue
			}
			appendRun(plain.String(), false, false)
			plain.Reset()
			appendRun(text[i+1:i+1+end], false, true)
			i += end + 2
		default:
			plain.WriteByte(text[i])
			i++
		}
	}
	appendRun(plain.String(), false, false)

	return runs
}
