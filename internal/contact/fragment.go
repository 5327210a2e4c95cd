package contact

import "strings"

// Point is a vertex of a detection box in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is the quadrilateral enclosing a detected fragment, clockwise from the
// top-left corner.
type Box [4]Point

// Top returns the smallest y coordinate of the box.
func (b Box) Top() float64 {
	top := b[0].Y
	for _, p := range b[1:] {
		if p.Y < top {
			top = p.Y
		}
	}
	return top
}

// Left returns the smallest x coordinate of the box.
func (b Box) Left() float64 {
	left := b[0].X
	for _, p := range b[1:] {
		if p.X < left {
			left = p.X
		}
	}
	return left
}

// Bottom returns the largest y coordinate of the box.
func (b Box) Bottom() float64 {
	bottom := b[0].Y
	for _, p := range b[1:] {
		if p.Y > bottom {
			bottom = p.Y
		}
	}
	return bottom
}

// Right returns the largest x coordinate of the box.
func (b Box) Right() float64 {
	right := b[0].X
	for _, p := range b[1:] {
		if p.X > right {
			right = p.X
		}
	}
	return right
}

// Height returns the vertical extent of the box.
func (b Box) Height() float64 {
	return b.Bottom() - b.Top()
}

// RectBox builds an axis-aligned box.
func RectBox(left, top, width, height float64) Box {
	return Box{
		{X: left, Y: top},
		{X: left + width, Y: top},
		{X: left + width, Y: top + height},
		{X: left, Y: top + height},
	}
}

// Fragment is one OCR text string in top-to-bottom order. Index 0 is the
// topmost fragment.
type Fragment struct {
	Text  string `json:"text"`
	Index int    `json:"index"`
	Box   *Box   `json:"box,omitempty"`
}

// Fragments wraps plain strings, assigning indices in order.
func Fragments(texts ...string) []Fragment {
	out := make([]Fragment, len(texts))
	for i, text := range texts {
		out[i] = Fragment{Text: text, Index: i}
	}
	return out
}

// Blank reports whether the fragment has no visible text.
func (f Fragment) Blank() bool {
	return strings.TrimSpace(f.Text) == ""
}
