// Package vision implements the geometric hand pipeline: a running-average
// background model, silhouette extraction by background differencing, contour
// selection, extreme-point location and the convex-hull ring heuristic used to
// count extended fingers.
package vision

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Background model defaults.
const (
	// DefaultWeight is the blend weight of each calibration frame.
	DefaultWeight = 0.5
	// DefaultCalibrationFrames is the number of frames averaged before freezing.
	DefaultCalibrationFrames = 30
)

var (
	// ErrFrozen is returned when a frame is accumulated after calibration ended.
	ErrFrozen = errors.New("background model is frozen")
	// ErrNotSeeded is returned when the background is used before any frame was seen.
	ErrNotSeeded = errors.New("background model has not been seeded")
	// ErrShapeMismatch is returned when a frame does not match the background shape.
	ErrShapeMismatch = errors.New("frame shape does not match background")
)

// Phase is the lifecycle state of a BackgroundModel.
type Phase int

const (
	// Calibrating means frames are still being averaged into the estimate.
	Calibrating Phase = iota
	// Frozen means the estimate is read-only for the rest of the session.
	Frozen
)

func (p Phase) String() string {
	switch p {
	case Calibrating:
		return "calibrating"
	case Frozen:
		return "frozen"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// BackgroundModel keeps a floating-point running average of the static scene.
//
// The model starts Calibrating. The first accumulated frame seeds the estimate,
// every following one is blended in with AccumulatedWeighted, and after exactly
// limit frames the model moves to Frozen and never changes again.
type BackgroundModel struct {
	weight   float64
	limit    int
	seen     int
	phase    Phase
	estimate gocv.Mat
	seeded   bool
	mu       sync.Mutex
}

// NewBackgroundModel creates a model that blends frames with the given weight
// and freezes after limit frames. A limit below 1 is treated as 1 so the
// estimate is always seeded before it freezes.
func NewBackgroundModel(weight float64, limit int) *BackgroundModel {
	if limit < 1 {
		limit = 1
	}
	return &BackgroundModel{
		weight:   weight,
		limit:    limit,
		phase:    Calibrating,
		estimate: gocv.NewMat(),
	}
}

// Accumulate seeds or updates the estimate with roi.
func (b *BackgroundModel) Accumulate(roi gocv.Mat) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.phase == Frozen {
		return ErrFrozen
	}
	if roi.Empty() {
		return errors.New("accumulate: empty frame")
	}

	if !b.seeded {
		// No averaging on the seeding frame.
		roi.ConvertTo(&b.estimate, gocv.MatTypeCV32F)
		b.seeded = true
	} else {
		if !sameShape(roi, b.estimate) {
			return fmt.Errorf("accumulate: %w (%dx%dx%d vs %dx%dx%d)", ErrShapeMismatch,
				roi.Cols(), roi.Rows(), roi.Channels(),
				b.estimate.Cols(), b.estimate.Rows(), b.estimate.Channels())
		}
		gocv.AccumulatedWeighted(roi, &b.estimate, b.weight)
	}

	b.seen++
	if b.seen >= b.limit {
		b.phase = Frozen
	}
	return nil
}

// Subtract extracts the silhouette of roi against the estimate.
func (b *BackgroundModel) Subtract(roi gocv.Mat, p SilhouetteParams) (gocv.Mat, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.seeded {
		return gocv.NewMat(), ErrNotSeeded
	}
	return ExtractSilhouette(roi, b.estimate, p)
}

// Phase returns the current lifecycle state.
func (b *BackgroundModel) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Seen returns the number of frames accumulated so far.
func (b *BackgroundModel) Seen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

// Remaining returns how many calibration frames are left before freezing.
func (b *BackgroundModel) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit - b.seen
}

// Seeded reports whether the estimate holds at least one frame.
func (b *BackgroundModel) Seeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seeded
}

// Close releases the estimate.
func (b *BackgroundModel) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.estimate.Empty() {
		b.estimate.Close()
		b.estimate = gocv.NewMat()
	}
	b.seeded = false
}

func sameShape(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols() && a.Channels() == b.Channels()
}
