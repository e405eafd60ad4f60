package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Silhouette defaults.
const (
	// DefaultThreshold is the luminance difference above which a pixel is foreground.
	DefaultThreshold = 25
	// DefaultBlurSize is the side of the Gaussian kernel (11x11).
	DefaultBlurSize = 11
	// DefaultErodeIterations is the number of 3x3 erosions applied after thresholding.
	DefaultErodeIterations = 3
	// DefaultDilateIterations is the number of 3x3 dilations applied after erosion.
	DefaultDilateIterations = 3
)

// SilhouetteParams tunes ExtractSilhouette.
type SilhouetteParams struct {
	Threshold        float32
	BlurSize         int
	ErodeIterations  int
	DilateIterations int
}

// DefaultSilhouetteParams returns the parameters used by a fresh session.
func DefaultSilhouetteParams() SilhouetteParams {
	return SilhouetteParams{
		Threshold:        DefaultThreshold,
		BlurSize:         DefaultBlurSize,
		ErodeIterations:  DefaultErodeIterations,
		DilateIterations: DefaultDilateIterations,
	}
}

// Validate checks that the parameters describe a usable pipeline.
func (p SilhouetteParams) Validate() error {
	if p.Threshold < 0 || p.Threshold > 255 {
		return fmt.Errorf("threshold %v out of range [0,255]", p.Threshold)
	}
	if p.BlurSize < 1 || p.BlurSize%2 == 0 {
		return fmt.Errorf("blur size %d must be a positive odd number", p.BlurSize)
	}
	if p.ErodeIterations < 0 || p.DilateIterations < 0 {
		return errors.New("erode and dilate iterations must not be negative")
	}
	return nil
}

// ExtractSilhouette returns the binary foreground mask of roi against a
// background estimate of the same shape. The estimate may be floating point;
// it is cast back to 8 bits before differencing.
//
// Algorithm:
// 1. Absolute difference of estimate and roi
// 2. Collapse to one luminance channel
// 3. Gaussian blur (BlurSize x BlurSize)
// 4. Binary threshold: > Threshold becomes 255
// 5. Erode then dilate with a 3x3 rectangle
//
// The returned Mat is CV_8UC1 and owned by the caller.
func ExtractSilhouette(roi, estimate gocv.Mat, p SilhouetteParams) (gocv.Mat, error) {
	if roi.Empty() || estimate.Empty() {
		return gocv.NewMat(), errors.New("extract silhouette: empty input")
	}
	if !sameShape(roi, estimate) {
		return gocv.NewMat(), fmt.Errorf("extract silhouette: %w", ErrShapeMismatch)
	}

	background := gocv.NewMat()
	defer background.Close()
	estimate.ConvertTo(&background, roi.Type())

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(background, roi, &diff)

	gray := gocv.NewMat()
	defer gray.Close()
	if diff.Channels() > 1 {
		gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)
	} else {
		diff.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(p.BlurSize, p.BlurSize), 0, 0, gocv.BorderDefault)

	mask := gocv.NewMat()
	gocv.Threshold(blurred, &mask, p.Threshold, 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	for i := 0; i < p.ErodeIterations; i++ {
		gocv.Erode(mask, &mask, kernel)
	}
	for i := 0; i < p.DilateIterations; i++ {
		gocv.Dilate(mask, &mask, kernel)
	}

	return mask, nil
}
