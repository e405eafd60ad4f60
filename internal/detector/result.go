// Package detector runs the geometric hand pipeline over a stream of ROI
// frames and reports one Result per frame.
package detector

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/vision"
)

// Result is the outcome of analyzing one frame.
//
// Contour, Hull and the extremes are fresh values for every frame. Mask is
// nil until the background is frozen; it is owned by the Result and must be
// released with Close.
type Result struct {
	SessionID   string `json:"session_id"`
	Frame       int    `json:"frame"`
	Calibrating bool   `json:"calibrating"`
	Remaining   int    `json:"remaining"`
	Detected    bool   `json:"detected"`
	Fingers     int    `json:"fingers"`

	Center       image.Point     `json:"center"`
	Radius       int             `json:"radius"`
	Extremes     vision.Extremes `json:"extremes"`
	HullExtremes vision.Extremes `json:"hull_extremes"`

	Contour vision.Contour `json:"contour,omitempty"`
	Hull    vision.Contour `json:"hull,omitempty"`

	Mask *gocv.Mat `json:"-"`
}

// HasMask reports whether the result carries a silhouette mask.
func (r *Result) HasMask() bool {
	return r.Mask != nil && !r.Mask.Empty()
}

// Close releases the mask, if any.
func (r *Result) Close() error {
	if r.Mask == nil {
		return nil
	}
	err := r.Mask.Close()
	r.Mask = nil
	return err
}

// Summary returns a copy of r without the mask, safe to retain across frames.
func (r *Result) Summary() Result {
	s := *r
	s.Mask = nil
	s.Contour = r.Contour.Clone()
	s.Hull = r.Hull.Clone()
	return s
}
