// Package app wires capture, detection, rendering and publishing into the
// handcount frame loop.
package app

import (
	"fmt"
	"image"
	"log"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/capture"
	"github.com/ayusman/handcount/internal/detector"
	"github.com/ayusman/handcount/internal/render"
)

// DefaultWidth is the prepared frame width.
const DefaultWidth = 800

// Config holds configuration options for the application.
type Config struct {
	// Source is a camera index ("0") or a video file path.
	Source string
	// Width is the width frames are resized to before the ROI is carved.
	Width int
	// Detector configures the detection session.
	Detector detector.Config
	// ShowMask passes the silhouette to the display.
	ShowMask bool
	// ShowFrameCount draws the frame counter.
	ShowFrameCount bool
	// StillPercent is the share of changed ROI pixels that counts as
	// movement while calibrating.
	StillPercent float64
}

// DefaultConfig returns the stock application configuration.
func DefaultConfig() Config {
	return Config{
		Source:       "0",
		Width:        DefaultWidth,
		Detector:     detector.DefaultConfig(),
		StillPercent: capture.DefaultStillPercent,
	}
}

// Publisher receives every processed frame. The annotated frame is only
// valid during the call.
type Publisher interface {
	Publish(r detector.Result, annotated gocv.Mat)
}

// Display shows annotated frames and reports when the user asked to stop.
type Display interface {
	Show(frame gocv.Mat, mask *gocv.Mat)
	Quit() bool
	Close() error
}

// App is the main application that runs the hand counting loop.
type App struct {
	config     Config
	roi        image.Rectangle
	camera     capture.Camera
	detector   detector.Detector
	scene      *capture.SceneMonitor
	overlay    *render.Overlay
	display    Display
	publishers []Publisher
	showMask   bool
	last       detector.Result
	mu         sync.RWMutex
}

// New creates a new App. Configuration errors are reported here, before any
// frame is read.
func New(config Config) (*App, error) {
	roi, err := capture.ROIFor(config.Width)
	if err != nil {
		return nil, fmt.Errorf("invalid width: %w", err)
	}

	session, err := detector.NewSession(config.Detector)
	if err != nil {
		return nil, err
	}

	overlay := render.NewOverlay(render.DefaultOptions(config.Detector.Limit))
	overlay.SetShowFrameCount(config.ShowFrameCount)

	a := &App{
		config:   config,
		roi:      roi,
		camera:   capture.NewCamera(config.Source),
		detector: session,
		scene:    capture.NewSceneMonitor(config.StillPercent),
		overlay:  overlay,
		display:  render.NewHeadless(),
		showMask: config.ShowMask,
	}

	log.Printf("Detector session %s: calibrating on %d frames", session.ID(), config.Detector.Limit)
	return a, nil
}

// SetCamera replaces the frame source.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector replaces the hand detector, closing the previous one.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.detector != nil {
		a.detector.Close()
	}
	a.detector = d
}

// SetDisplay sets where annotated frames are shown.
func (a *App) SetDisplay(d Display) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.display = d
}

// AddPublisher registers p to receive every processed frame.
func (a *App) AddPublisher(p Publisher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.publishers = append(a.publishers, p)
}

// SetShowMask toggles the silhouette display.
func (a *App) SetShowMask(show bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.showMask = show
}

// ShowMask reports whether the silhouette is displayed.
func (a *App) ShowMask() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.showMask
}

// LastResult returns the summary of the most recent frame.
func (a *App) LastResult() detector.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last.Summary()
}

// ROI returns the region of interest in prepared frame coordinates.
func (a *App) ROI() image.Rectangle {
	return a.roi
}

// Config returns the application configuration.
func (a *App) Config() Config {
	return a.config
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Close releases the camera, detector and display.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.scene.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.display != nil {
		if err := a.display.Close(); err != nil {
			log.Printf("Error closing display: %v", err)
		}
	}
}
