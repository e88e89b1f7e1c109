package source

import "sort"

// Edit replaces the byte range [Start, End) with Text. A pure insertion has
// Start == End.
type Edit struct {
	Start int
	End   int
	Text  string
}

// ApplyEdits splices a set of non-overlapping edits into the source text.
// Edits are applied in reverse source-position order so earlier splices never
// invalidate the offsets of edits not yet applied. Among edits anchored at
// the same position, later-added ones are applied first, which keeps
// earlier-added insertions earlier in the output.
func ApplyEdits(src string, edits []Edit) string {
	if len(edits) == 0 {
		return src
	}
	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if edits[order[i]].Start != edits[order[j]].Start {
			return edits[order[i]].Start > edits[order[j]].Start
		}
		// Same anchor: apply the later-added edit first so the earlier-added
		// insertion lands earlier in the output.
		return order[i] > order[j]
	})

	out := src
	for _, idx := range order {
		e := edits[idx]
		start, end := e.Start, e.End
		if start < 0 {
			start = 0
		}
		if end > len(out) {
			end = len(out)
		}
		if start > end {
			continue
		}
		out = out[:start] + e.Text + out[end:]
	}
	return out
}
