package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ayusman/handcount/internal/capture"
)

// ErrQuit is returned by Step when the display asked to stop.
var ErrQuit = errors.New("quit requested")

// Run opens the camera and processes frames until ctx is cancelled, the
// display asks to quit or the source runs out. Frames are processed one at
// a time on the calling goroutine; cancellation is checked between frames.
//
// A finished video file ends the run without error. Any other read or
// detection failure ends the run and is returned.
func (a *App) Run(ctx context.Context) error {
	if err := a.Camera().Open(); err != nil {
		return err
	}

	log.Println("Detection pipeline started")
	defer log.Println("Detection pipeline stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		err := a.Step()
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit):
			return nil
		case errors.Is(err, capture.ErrSourceExhausted):
			log.Println("Video source exhausted")
			return nil
		default:
			return err
		}
	}
}

// Step processes exactly one frame.
//
// Pipeline logic:
// 1. Read a frame, mirror it and resize it to the configured width
// 2. Carve the ROI and hand it to the detector
// 3. While calibrating, warn if the ROI is not still
// 4. Draw the overlay onto the full frame
// 5. Publish the result with the annotated frame
// 6. Show the frame (and mask) and check for quit
func (a *App) Step() error {
	a.mu.RLock()
	camera, det, display := a.camera, a.detector, a.display
	publishers := a.publishers
	showMask := a.showMask
	a.mu.RUnlock()

	raw, err := camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	frame := capture.Prepare(*raw, a.config.Width)
	raw.Close()
	defer frame.Close()

	roi, err := capture.Carve(frame, a.roi)
	if err != nil {
		return err
	}
	defer roi.Close()

	result, err := det.Detect(&roi)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	defer result.Close()

	if result.Calibrating {
		if moved, percent := a.scene.Observe(roi); moved {
			log.Printf("Scene moving during calibration (%.1f%% of ROI changed); keep the hand out of the box", percent)
		}
	}

	a.overlay.Draw(&frame, a.roi, result)

	summary := result.Summary()
	for _, p := range publishers {
		p.Publish(summary, frame)
	}

	a.mu.Lock()
	a.last = summary
	a.mu.Unlock()

	if display != nil {
		if showMask && result.HasMask() {
			display.Show(frame, result.Mask)
		} else {
			display.Show(frame, nil)
		}
		if display.Quit() {
			return ErrQuit
		}
	}

	return nil
}
