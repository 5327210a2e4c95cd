package ocr

import (
	"sort"
	"strings"

	"bizcard/internal/contact"
	"bizcard/internal/textutil"
)

// Filter drops detections below minConfidence. A non-positive floor keeps
// everything.
func Filter(dets []Detection, minConfidence float64) []Detection {
	if minConfidence <= 0 {
		return dets
	}
	out := make([]Detection, 0, len(dets))
	for _, d := range dets {
		if d.Confidence >= minConfidence {
			out = append(out, d)
		}
	}
	return out
}

// Order sorts detections top to bottom, then left to right. Detections whose
// vertical centers fall within half a line height of each other count as the
// same row.
func Order(dets []Detection) []Detection {
	out := append([]Detection(nil), dets...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Box, out[j].Box
		if sameRow(a, b) {
			return a.Left() < b.Left()
		}
		return a.Top() < b.Top()
	})
	return out
}

func sameRow(a, b contact.Box) bool {
	tolerance := min(a.Height(), b.Height()) / 2
	ca := (a.Top() + a.Bottom()) / 2
	cb := (b.Top() + b.Bottom()) / 2
	diff := ca - cb
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// assembleLines merges word detections that share a row into one detection
// per line. Word order inside a line follows the x coordinate; confidence is
// the mean of the words.
func assembleLines(words []Detection) []Detection {
	if len(words) == 0 {
		return nil
	}
	sorted := append([]Detection(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Top() < sorted[j].Box.Top()
	})

	var rows [][]Detection
	for _, w := range sorted {
		placed := false
		for i := range rows {
			if sameRow(rows[i][0].Box, w.Box) {
				rows[i] = append(rows[i], w)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []Detection{w})
		}
	}

	lines := make([]Detection, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, mergeRow(row))
	}
	return Order(lines)
}

func mergeRow(row []Detection) Detection {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].Box.Left() < row[j].Box.Left()
	})
	parts := make([]string, 0, len(row))
	left, top := row[0].Box.Left(), row[0].Box.Top()
	right, bottom := row[0].Box.Right(), row[0].Box.Bottom()
	var conf float64
	for _, w := range row {
		parts = append(parts, w.Text)
		left = min(left, w.Box.Left())
		top = min(top, w.Box.Top())
		right = max(right, w.Box.Right())
		bottom = max(bottom, w.Box.Bottom())
		conf += w.Confidence
	}
	return Detection{
		Text:       strings.Join(parts, " "),
		Box:        contact.RectBox(left, top, right-left, bottom-top),
		Confidence: conf / float64(len(row)),
	}
}

// Fragments filters, orders, and normalizes detections into classifier input.
// Indices are assigned after filtering so index 0 is the topmost kept line.
func Fragments(dets []Detection, minConfidence float64) []contact.Fragment {
	kept := Order(Filter(dets, minConfidence))
	out := make([]contact.Fragment, 0, len(kept))
	for _, d := range kept {
		text := textutil.NormalizeFragment(d.Text)
		if text == "" {
			continue
		}
		box := d.Box
		out = append(out, contact.Fragment{Text: text, Index: len(out), Box: &box})
	}
	return out
}
