// Package render draws detection results onto video frames and shows them in
// OpenCV windows.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
	"golang.org/x/image/colornames"

	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/vision"
)

// BannerSpan is how many frames around the calibration limit the completion
// banner stays on screen.
const BannerSpan = 5

// BannerText is shown when calibration ends.
const BannerText = "Background Analysis Complete"

// Options configures an Overlay.
type Options struct {
	ROIColor       color.RGBA
	ROIThickness   int
	ShowFrameCount bool
	// Limit is the calibration frame limit, used to color the frame counter
	// and time the banner.
	Limit int
}

// DefaultOptions returns the stock overlay look.
func DefaultOptions(limit int) Options {
	return Options{
		ROIColor:     colornames.Blue,
		ROIThickness: 2,
		Limit:        limit,
	}
}

// Overlay draws ROI, status text and hand geometry onto a full frame.
type Overlay struct {
	opts Options
}

// NewOverlay creates an Overlay. A non-positive thickness is raised to 1.
func NewOverlay(opts Options) *Overlay {
	if opts.ROIThickness < 1 {
		opts.ROIThickness = 1
	}
	return &Overlay{opts: opts}
}

// Options returns the overlay options.
func (o *Overlay) Options() Options {
	return o.opts
}

// SetShowFrameCount toggles the frame counter.
func (o *Overlay) SetShowFrameCount(show bool) {
	o.opts.ShowFrameCount = show
}

// Draw annotates frame in place. Result geometry is relative to roi and is
// shifted onto the frame.
func (o *Overlay) Draw(frame *gocv.Mat, roi image.Rectangle, r detector.Result) {
	width := frame.Cols()
	margin := textPos(width, 0.03125)

	if r.Detected {
		o.drawHand(frame, roi.Min, r)
		gocv.PutText(frame, fmt.Sprintf("Fingers : %d", r.Fingers),
			image.Pt(margin, textPos(width, 0.0625)),
			gocv.FontHersheySimplex, 1, colornames.Lime, 2)
	}

	gocv.Rectangle(frame, roi, o.opts.ROIColor, o.opts.ROIThickness)

	if o.opts.ShowFrameCount {
		c := colornames.Red
		if r.Frame >= o.opts.Limit {
			c = colornames.Lime
		}
		gocv.PutText(frame, fmt.Sprintf("Frame %d", r.Frame),
			image.Pt(margin, textPos(width, 0.125)),
			gocv.FontHersheySimplex, 1, c, 2)
	}

	if ShowBanner(r.Frame, o.opts.Limit) {
		gocv.PutText(frame, BannerText,
			image.Pt(margin, textPos(width, 0.450)),
			gocv.FontHersheySimplex, 1, colornames.Lime, 2)
	}
}

func (o *Overlay) drawHand(frame *gocv.Mat, offset image.Point, r detector.Result) {
	gocv.Circle(frame, r.Center.Add(offset), 6, colornames.Blue, -1)
	drawPolyline(frame, r.Hull, offset, colornames.Yellow)
	drawPolyline(frame, r.Contour, offset, colornames.Lime)
	DrawExtremes(frame, r.Extremes, offset)
}

// ShowBanner reports whether frame lies within BannerSpan of limit.
func ShowBanner(frame, limit int) bool {
	return frame >= limit-BannerSpan && frame <= limit+BannerSpan
}

// ExtremeColors are the dot colors for left, right, top and bottom.
var ExtremeColors = [4]color.RGBA{
	colornames.Red,
	colornames.Lime,
	colornames.Blue,
	colornames.Cyan,
}

// DrawExtremes marks the four extreme points.
func DrawExtremes(frame *gocv.Mat, e vision.Extremes, offset image.Point) {
	for i, p := range e.Points() {
		gocv.Circle(frame, p.Add(offset), 6, ExtremeColors[i], -1)
	}
}

func drawPolyline(frame *gocv.Mat, c vision.Contour, offset image.Point, col color.RGBA) {
	if len(c) < 2 {
		return
	}
	pts := make([]image.Point, len(c))
	for i, p := range c {
		pts[i] = p.Add(offset)
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{pts})
	defer pv.Close()
	gocv.DrawContours(frame, pv, -1, col, 2)
}

func textPos(width int, fraction float64) int {
	return int(fraction * float64(width))
}
