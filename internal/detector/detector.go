package detector

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/vision"
)

// Detector defines the interface for per-frame hand analysis.
type Detector interface {
	// Detect analyzes one ROI frame and returns the outcome for that frame.
	// A frame without a hand is a normal result, not an error.
	Detect(roi *gocv.Mat) (Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for a detection session.
type Config struct {
	// Limit is the number of initial frames averaged into the background.
	Limit int

	// Weight is the blend weight of each calibration frame (0, 1].
	Weight float64

	// Silhouette tunes background differencing.
	Silhouette vision.SilhouetteParams

	// Fingers tunes the finger counting heuristic.
	Fingers vision.FingerParams
}

// DefaultConfig returns a Config with the stock calibration and heuristics.
func DefaultConfig() Config {
	return Config{
		Limit:      vision.DefaultCalibrationFrames,
		Weight:     vision.DefaultWeight,
		Silhouette: vision.DefaultSilhouetteParams(),
		Fingers:    vision.DefaultFingerParams(),
	}
}

// Validate reports the first invalid option.
func (c Config) Validate() error {
	if c.Limit < 1 {
		return fmt.Errorf("calibration limit %d must be at least 1", c.Limit)
	}
	if c.Weight <= 0 || c.Weight > 1 {
		return fmt.Errorf("background weight %v must be in (0, 1]", c.Weight)
	}
	if err := c.Silhouette.Validate(); err != nil {
		return err
	}
	if c.Fingers.RadiusFraction <= 0 {
		return errors.New("ring radius fraction must be positive")
	}
	return nil
}
