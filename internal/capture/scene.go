package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Scene monitor constants
const (
	// SceneBlurSize is the Gaussian kernel side used before differencing (21x21).
	SceneBlurSize = 21
	// SceneDiffThreshold is the per-pixel difference counted as change.
	SceneDiffThreshold = 25
	// DefaultStillPercent is the share of changed pixels above which the
	// scene is considered moving.
	DefaultStillPercent = 1.0
)

// SceneMonitor watches consecutive ROI frames and reports when the scene is
// not still. A moving scene while the background is calibrating bakes the
// motion into the estimate, so the frame loop warns about it.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur (21x21)
// 3. First frame becomes the reference, reported as still
// 4. AbsDiff with the reference, threshold at 25
// 5. changed = nonzero / total * 100
// 6. The frame becomes the new reference
type SceneMonitor struct {
	percent     float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewSceneMonitor creates a monitor that reports movement once more than
// percent of the pixels changed between frames. Non-positive values use
// DefaultStillPercent.
func NewSceneMonitor(percent float64) *SceneMonitor {
	if percent <= 0 {
		percent = DefaultStillPercent
	}
	return &SceneMonitor{
		percent:  percent,
		prevGray: gocv.NewMat(),
	}
}

// Observe compares roi with the previous frame. It returns whether the
// scene moved and the percentage of pixels that changed.
func (m *SceneMonitor) Observe(roi gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if roi.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if roi.Channels() > 1 {
		gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray)
	} else {
		roi.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(SceneBlurSize, SceneBlurSize), 0, 0, gocv.BorderDefault)

	if !m.initialized || !sameSize(blurred, m.prevGray) {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	changed := gocv.NewMat()
	defer changed.Close()
	gocv.Threshold(diff, &changed, SceneDiffThreshold, 255, gocv.ThresholdBinary)

	percent := float64(gocv.CountNonZero(changed)) / float64(changed.Rows()*changed.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return percent > m.percent, percent
}

// Reset forgets the reference frame.
func (m *SceneMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the monitor.
func (m *SceneMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *SceneMonitor) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

func sameSize(a, b gocv.Mat) bool {
	return a.Rows() == b.Rows() && a.Cols() == b.Cols()
}
