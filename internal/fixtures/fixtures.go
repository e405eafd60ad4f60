// Package fixtures builds synthetic frames and silhouettes for tests.
package fixtures

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
)

var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// SolidFrame returns a rows x cols BGR frame with every channel set to value.
func SolidFrame(rows, cols int, value uint8) gocv.Mat {
	v := float64(value)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), rows, cols, gocv.MatTypeCV8UC3)
}

// FrameWithDisc returns a solid frame of background with a filled circle of
// the given radius and value drawn at center.
func FrameWithDisc(rows, cols int, background, value uint8, center image.Point, radius int) gocv.Mat {
	frame := SolidFrame(rows, cols, background)
	gocv.Circle(&frame, center, radius, color.RGBA{R: value, G: value, B: value, A: 255}, -1)
	return frame
}

// EmptyMask returns an all-zero single channel mask.
func EmptyMask(rows, cols int) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
}

// Spoke is a thick line leaving the palm center at Angle degrees from the
// upward vertical (positive is clockwise) with the given Length.
type Spoke struct {
	Angle  float64
	Length int
}

// Tip returns the end point of s drawn from center.
func (s Spoke) Tip(center image.Point) image.Point {
	rad := s.Angle * math.Pi / 180
	return image.Point{
		X: center.X + int(math.Round(float64(s.Length)*math.Sin(rad))),
		Y: center.Y - int(math.Round(float64(s.Length)*math.Cos(rad))),
	}
}

// HandMask returns a binary mask of a filled palm disc with spokes of the
// given thickness radiating from its center.
func HandMask(rows, cols int, center image.Point, palmRadius, thickness int, spokes []Spoke) gocv.Mat {
	mask := EmptyMask(rows, cols)
	gocv.Circle(&mask, center, palmRadius, white, -1)
	for _, s := range spokes {
		gocv.Line(&mask, center, s.Tip(center), white, thickness)
	}
	return mask
}

// FanSpokes returns n spokes of equal length spread symmetrically over
// [-spread, spread] degrees. A single spoke points straight up.
func FanSpokes(n int, length int, spread float64) []Spoke {
	spokes := make([]Spoke, 0, n)
	if n == 1 {
		return append(spokes, Spoke{Angle: 0, Length: length})
	}
	for i := 0; i < n; i++ {
		angle := -spread + 2*spread*float64(i)/float64(n-1)
		spokes = append(spokes, Spoke{Angle: angle, Length: length})
	}
	return spokes
}

// HandFrame returns a solid BGR frame of background with a hand of the given
// value painted on it, shaped like HandMask.
func HandFrame(rows, cols int, background, value uint8, center image.Point, palmRadius, thickness int, spokes []Spoke) gocv.Mat {
	frame := SolidFrame(rows, cols, background)
	c := color.RGBA{R: value, G: value, B: value, A: 255}
	gocv.Circle(&frame, center, palmRadius, c, -1)
	for _, s := range spokes {
		gocv.Line(&frame, center, s.Tip(center), c, thickness)
	}
	return frame
}
