// Package capture reads frames from a camera or a video file using GoCV
// (OpenCV) and cuts the region of interest out of them.
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default camera settings
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrSourceExhausted is returned when a video file or stream has no more frames.
	ErrSourceExhausted = errors.New("no more frames in source")
)

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// cameraImpl manages video capture from a device or file using GoCV.
type cameraImpl struct {
	source  string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
	fps     int
}

// NewCamera creates a new Camera for source. A source made only of digits
// is a device index ("0" is the default webcam); anything else is opened as
// a file path or stream URL.
func NewCamera(source string) Camera {
	return &cameraImpl{
		source: source,
		fps:    DefaultFPS,
	}
}

// IsDevice reports whether source names a camera device index.
func IsDevice(source string) bool {
	_, err := strconv.Atoi(source)
	return err == nil
}

// Open opens the source for capturing frames.
// Devices are asked for 640x480; files keep their native size.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.source == "" {
		return errors.New("open camera: empty source")
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, convErr := strconv.Atoi(c.source); convErr == nil {
		capture, err = gocv.OpenVideoCapture(id)
		if err == nil {
			capture.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
			capture.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
			capture.Set(gocv.VideoCaptureFPS, float64(c.fps))
		}
	} else {
		capture, err = gocv.OpenVideoCapture(c.source)
	}
	if err != nil {
		return fmt.Errorf("open camera %q: %w", c.source, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open camera %q: source could not be opened", c.source)
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the source.
// The caller is responsible for closing the returned Mat.
// A file that reached its end returns ErrSourceExhausted.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if !IsDevice(c.source) {
			return nil, ErrSourceExhausted
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		if !IsDevice(c.source) {
			return nil, ErrSourceExhausted
		}
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the frames per second for capture.
// Values less than or equal to 0 are ignored.
func (c *cameraImpl) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current frames per second setting.
func (c *cameraImpl) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fps
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
