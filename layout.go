package md2docx

import "unicode/utf8"

// columnWidths distributes total twips across columns proportionally to
// the longest cell (in characters) of each column, with a per-column
// floor. The widths always sum to total exactly, and no column falls
// below the floor unless cols*minWidth exceeds the total, in which case
// the floor is unsatisfiable and the table falls back to an even split.
func columnWidths(headers []string, rows [][]string, total, minWidth int) []int {
	cols := len(headers)
	if cols == 0 {
		return nil
	}

	if cols*minWidth >= total {
		widths := make([]int, cols)
		each := total / cols
		for i := range widths {
			widths[i] = each
		}
		widths[cols-1] += total - each*cols
		return widths
	}

	maxLens := make([]int, cols)
	for i, h := range headers {
		maxLens[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if n := utf8.RuneCountInString(row[i]); n > maxLens[i] {
				maxLens[i] = n
			}
		}
	}

	sumLens := 0
	for i := range maxLens {
		if maxLens[i] < 1 {
			maxLens[i] = 1
		}
		sumLens += maxLens[i]
	}

	widths := make([]int, cols)
	allocated := 0
	for i := range widths {
		w := total * maxLens[i] / sumLens
		if w < minWidth {
			w = minWidth
		}
		widths[i] = w
		allocated += w
	}

	// The floor can push the sum above total and integer division can pull
	// it below; the last column takes the difference. When the absorption
	// would undercut the floor, pull the shortfall from the widest columns
	// instead, each down to its own floor.
	widths[cols-1] += total - allocated
	for widths[cols-1] < minWidth {
		widest := 0
		for i := 1; i < cols-1; i++ {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		avail := widths[widest] - minWidth
		if avail <= 0 {
			break
		}
		need := minWidth - widths[cols-1]
		if avail > need {
			avail = need
		}
		widths[widest] -= avail
		widths[cols-1] += avail
	}
	return widths
}
