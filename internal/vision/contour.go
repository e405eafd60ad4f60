package vision

import (
	"image"

	"gocv.io/x/gocv"
)

// Contour is an ordered sequence of boundary points of a connected region.
// Contours are recomputed every frame and never shared between frames.
type Contour []image.Point

// Clone returns an independent copy of c.
func (c Contour) Clone() Contour {
	if c == nil {
		return nil
	}
	out := make(Contour, len(c))
	copy(out, c)
	return out
}

// Area returns the enclosed polygon area using the shoelace formula.
func (c Contour) Area() float64 {
	if len(c) < 3 {
		return 0
	}
	var twice int
	for i := range c {
		j := (i + 1) % len(c)
		twice += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	if twice < 0 {
		twice = -twice
	}
	return float64(twice) / 2
}

// BoundingBox returns the smallest rectangle containing every point, with an
// exclusive Max as produced by gocv.BoundingRect.
func (c Contour) BoundingBox() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// Degenerate reports whether c has too few points to enclose an area.
func (c Contour) Degenerate() bool {
	return len(c) < 3
}

// FindContours returns the external contours of a binary mask.
func FindContours(mask gocv.Mat, approx gocv.ContourApproximationMode) []Contour {
	if mask.Empty() {
		return nil
	}

	found := gocv.FindContours(mask, gocv.RetrievalExternal, approx)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, Contour(found.At(i).ToPoints()))
	}
	return contours
}

// SelectMaxContour returns the external contour of mask with the largest
// enclosed area, assumed to be the hand. Runs of collinear boundary points are
// merged. The second return value is false when the mask has no contour or
// when the largest one is degenerate; neither case is an error.
func SelectMaxContour(mask gocv.Mat) (Contour, bool) {
	if mask.Empty() {
		return nil, false
	}

	found := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < found.Size(); i++ {
		area := gocv.ContourArea(found.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}
	if best < 0 {
		return nil, false
	}

	hand := Contour(found.At(best).ToPoints())
	if hand.Degenerate() {
		return nil, false
	}
	return hand, true
}
