package render

import (
	"sync"

	"gocv.io/x/gocv"
)

// Window titles.
const (
	VideoTitle = "Video"
	MaskTitle  = "Thresholded"
)

// DefaultBreakKey ends the session when pressed in the video window.
const DefaultBreakKey = 'q'

// waitMillis is how long each frame waits for a key press.
const waitMillis = 10

// Window shows annotated frames, and optionally the silhouette, in OpenCV
// windows. It must be used from the goroutine that created it.
type Window struct {
	breakKey int
	video    *gocv.Window
	mask     *gocv.Window
	quit     bool
	mu       sync.Mutex
}

// NewWindow opens the video window. breakKey 0 uses DefaultBreakKey.
func NewWindow(breakKey rune) *Window {
	if breakKey == 0 {
		breakKey = DefaultBreakKey
	}
	return &Window{
		breakKey: int(breakKey),
		video:    gocv.NewWindow(VideoTitle),
	}
}

// Show displays frame and, when mask is non-nil, the silhouette in a second
// window. It then polls the keyboard once.
func (w *Window) Show(frame gocv.Mat, mask *gocv.Mat) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.video.IMShow(frame)
	if mask != nil && !mask.Empty() {
		if w.mask == nil {
			w.mask = gocv.NewWindow(MaskTitle)
		}
		w.mask.IMShow(*mask)
	}

	if key := w.video.WaitKey(waitMillis); key >= 0 && key&0xFF == w.breakKey {
		w.quit = true
	}
}

// Quit reports whether the break key was pressed.
func (w *Window) Quit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quit
}

// Close destroys the windows.
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mask != nil {
		w.mask.Close()
		w.mask = nil
	}
	if w.video != nil {
		err := w.video.Close()
		w.video = nil
		return err
	}
	return nil
}

// Headless is a display that shows nothing and never quits on its own. It
// counts frames so tests can observe the loop.
type Headless struct {
	frames int
	masks  int
	mu     sync.Mutex
}

// NewHeadless creates a Headless display.
func NewHeadless() *Headless {
	return &Headless{}
}

// Show records the frame.
func (h *Headless) Show(frame gocv.Mat, mask *gocv.Mat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames++
	if mask != nil && !mask.Empty() {
		h.masks++
	}
}

// Quit always reports false.
func (h *Headless) Quit() bool { return false }

// Close is a no-op.
func (h *Headless) Close() error { return nil }

// Frames returns how many frames were shown.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// Masks returns how many frames came with a mask.
func (h *Headless) Masks() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.masks
}
