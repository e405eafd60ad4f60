package vision

import (
	"image"
	"math"
)

// Extremes holds the four axis-extreme points of a contour.
type Extremes struct {
	Left   image.Point `json:"left"`
	Right  image.Point `json:"right"`
	Top    image.Point `json:"top"`
	Bottom image.Point `json:"bottom"`
}

// FindExtremes scans c once and returns the points with minimum x, maximum x,
// minimum y and maximum y. The first point wins ties. An empty contour yields
// the zero Extremes.
func FindExtremes(c Contour) Extremes {
	if len(c) == 0 {
		return Extremes{}
	}

	e := Extremes{Left: c[0], Right: c[0], Top: c[0], Bottom: c[0]}
	for _, p := range c[1:] {
		if p.X < e.Left.X {
			e.Left = p
		}
		if p.X > e.Right.X {
			e.Right = p
		}
		if p.Y < e.Top.Y {
			e.Top = p
		}
		if p.Y > e.Bottom.Y {
			e.Bottom = p
		}
	}
	return e
}

// Center returns the center of the bounding cross: the midpoint of the left
// and right x coordinates and of the top and bottom y coordinates.
func (e Extremes) Center() image.Point {
	return image.Point{
		X: (e.Left.X + e.Right.X) / 2,
		Y: (e.Top.Y + e.Bottom.Y) / 2,
	}
}

// Points returns the extremes in left, right, top, bottom order.
func (e Extremes) Points() [4]image.Point {
	return [4]image.Point{e.Left, e.Right, e.Top, e.Bottom}
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
