package md2docx

// cjkRange is a contiguous block of code points rendered with the CJK font.
type cjkRange struct {
	lo, hi rune
}

// cjkRanges covers the CJK blocks that occur in the source corpus: unified
// ideographs and extensions, radicals, punctuation, kana, compatibility
// ideographs, and fullwidth forms.
var cjkRanges = []cjkRange{
	{0x2E80, 0x2EFF}, // CJK Radicals Supplement
	{0x3000, 0x303F}, // CJK Symbols and Punctuation
	{0x3040, 0x30FF}, // Hiragana, Katakana
	{0x3400, 0x4DBF}, // CJK Unified Ideographs Extension A
	{0x4E00, 0x9FFF}, // CJK Unified Ideographs
	{0xF900, 0xFAFF}, // CJK Compatibility Ideographs
	{0xFF00, 0xFFEF}, // Halfwidth and Fullwidth Forms
}

// containsCJK reports whether any code point in s falls in a CJK block.
func containsCJK(s string) bool {
	for _, r := range s {
		for _, rg := range cjkRanges {
			if r >= rg.lo && r <= rg.hi {
				return true
			}
		}
	}
	return false
}

// Select returns the font family for a run of text: the CJK font when the
// run contains any CJK code point, otherwise the Latin font. Selection is
// per run, not per paragraph, so mixed-script lines render each segment in
// its own font. Code runs bypass Select and always use f.Code.
func (f FontSet) Select(text string) string {
	if containsCJK(text) {
		return f.CJK
	}
	return f.Latin
}
