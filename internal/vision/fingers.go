package vision

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
)

// Finger counting heuristics. The values are empirical and exposed so they
// can be tuned independently.
const (
	// DefaultRadiusFraction scales the largest center-to-extreme distance into the ring radius.
	DefaultRadiusFraction = 0.7
	// DefaultWristFraction places the wrist cutoff below the palm center.
	DefaultWristFraction = 0.25
	// DefaultArcFraction is the longest fragment, relative to the ring circumference, counted as a finger.
	DefaultArcFraction = 0.25
)

// FingerParams tunes CountFingers.
type FingerParams struct {
	RadiusFraction float64
	WristFraction  float64
	ArcFraction    float64
}

// DefaultFingerParams returns the stock heuristics.
func DefaultFingerParams() FingerParams {
	return FingerParams{
		RadiusFraction: DefaultRadiusFraction,
		WristFraction:  DefaultWristFraction,
		ArcFraction:    DefaultArcFraction,
	}
}

// FingerCount is the outcome of CountFingers for one hand contour.
type FingerCount struct {
	Hull     Contour
	Extremes Extremes
	Center   image.Point
	Radius   int
	Fingers  int
}

// ConvexHull returns the convex hull of c as an ordered point sequence.
func ConvexHull(c Contour) Contour {
	if len(c) == 0 {
		return nil
	}

	pv := gocv.NewPointVectorFromPoints(c)
	defer pv.Close()

	indices := gocv.NewMat()
	defer indices.Close()
	gocv.ConvexHull(pv, &indices, false, false)

	hull := make(Contour, 0, indices.Rows()*indices.Cols())
	for i := 0; i < indices.Rows(); i++ {
		for j := 0; j < indices.Cols(); j++ {
			hull = append(hull, c[indices.GetIntAt(i, j)])
		}
	}
	return hull
}

// PalmRadius returns round(fraction * d) where d is the largest distance
// from center to any of the four extremes.
func PalmRadius(center image.Point, e Extremes, fraction float64) int {
	pts := e.Points()
	distances := make([]float64, len(pts))
	for i, p := range pts {
		distances[i] = distance(center, p)
	}
	return int(math.Round(fraction * floats.Max(distances)))
}

// CountFingers estimates the number of extended fingers of hand in mask.
//
// Algorithm:
// 1. Convex hull of the hand and its extremes
// 2. Palm center from the hull extremes, radius from the farthest extreme
// 3. Draw a one pixel ring of that radius on an empty mask
// 4. AND the ring with the silhouette
// 5. Count the resulting fragments that end above the wrist cutoff and are
//    shorter than ArcFraction of the ring circumference
//
// mask must be a CV_8UC1 binary image; it is not modified.
func CountFingers(mask gocv.Mat, hand Contour, p FingerParams) FingerCount {
	var fc FingerCount
	if mask.Empty() || hand.Degenerate() {
		return fc
	}

	fc.Hull = ConvexHull(hand)
	if fc.Hull.Degenerate() {
		return fc
	}
	fc.Extremes = FindExtremes(fc.Hull)
	fc.Center = fc.Extremes.Center()
	fc.Radius = PalmRadius(fc.Center, fc.Extremes, p.RadiusFraction)
	if fc.Radius <= 0 {
		return fc
	}

	ring := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), mask.Rows(), mask.Cols(), gocv.MatTypeCV8UC1)
	defer ring.Close()
	gocv.Circle(&ring, fc.Center, fc.Radius, color.RGBA{R: 255, G: 255, B: 255, A: 255}, 1)

	cuts := gocv.NewMat()
	defer cuts.Close()
	gocv.BitwiseAnd(mask, ring, &cuts)

	circumference := 2 * math.Pi * float64(fc.Radius)
	wristCutoff := float64(fc.Center.Y) * (1 + p.WristFraction)
	for _, fragment := range FindContours(cuts, gocv.ChainApproxNone) {
		box := fragment.BoundingBox()
		if wristCutoff > float64(box.Max.Y) && circumference*p.ArcFraction > float64(len(fragment)) {
			fc.Fingers++
		}
	}
	return fc
}
