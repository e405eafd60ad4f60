package capture

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// MinWidth is the narrowest prepared frame that still fits the ROI.
const MinWidth = 500

// ROI position as fractions of the prepared frame width.
const (
	roiLeft   = 0.59375
	roiRight  = 0.96875
	roiTop    = 0.03125
	roiBottom = 0.4125
)

var (
	// ErrWidthTooSmall is returned for frame widths below MinWidth.
	ErrWidthTooSmall = errors.New("frame width too small for region of interest")
	// ErrROIOutOfBounds is returned when the ROI does not fit inside the frame.
	ErrROIOutOfBounds = errors.New("region of interest outside frame")
)

// ROIFor returns the fixed region of interest for frames of the given width.
// The box sits in the upper right of the mirrored frame. Edges truncate.
func ROIFor(width int) (image.Rectangle, error) {
	if width < MinWidth {
		return image.Rectangle{}, fmt.Errorf("%w: %d < %d", ErrWidthTooSmall, width, MinWidth)
	}
	w := float64(width)
	return image.Rect(int(roiLeft*w), int(roiTop*w), int(roiRight*w), int(roiBottom*w)), nil
}

// Prepare mirrors frame horizontally and resizes it to width, keeping the
// aspect ratio. The caller owns the returned Mat.
func Prepare(frame gocv.Mat, width int) gocv.Mat {
	mirrored := gocv.NewMat()
	defer mirrored.Close()
	gocv.Flip(frame, &mirrored, 1)

	if frame.Cols() == width || frame.Cols() == 0 {
		return mirrored.Clone()
	}

	height := int(math.Round(float64(frame.Rows()) * float64(width) / float64(frame.Cols())))
	resized := gocv.NewMat()
	gocv.Resize(mirrored, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationArea)
	return resized
}

// Carve copies the roi region out of frame. The copy does not share memory
// with frame and is owned by the caller.
func Carve(frame gocv.Mat, roi image.Rectangle) (gocv.Mat, error) {
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	if roi.Empty() || !roi.In(bounds) {
		return gocv.NewMat(), fmt.Errorf("%w: %v not in %v", ErrROIOutOfBounds, roi, bounds)
	}

	region := frame.Region(roi)
	defer region.Close()
	return region.Clone(), nil
}
