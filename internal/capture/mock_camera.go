package capture

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera replays a recording in place of a device. It behaves like a
// video file: once the recording ends, ReadFrame returns ErrSourceExhausted,
// unless it was created to loop.
type MockCamera struct {
	recording []*gocv.Mat
	next      int
	loop      bool
	reads     int
	open      bool
	mu        sync.Mutex
}

// NewMockCamera replays frames in order. The camera never closes or modifies
// them; the caller keeps ownership.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{recording: frames, loop: loop}
}

// Open rewinds the recording.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.next = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

// ReadFrame returns a clone of the next recorded frame. An empty recording is
// exhausted from the start, even when looping.
func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.next >= len(c.recording) {
		if !c.loop || len(c.recording) == 0 {
			return nil, ErrSourceExhausted
		}
		c.next = 0
	}

	frame := c.recording[c.next].Clone()
	c.next++
	c.reads++
	return &frame, nil
}

func (c *MockCamera) SetFPS(int) {}

func (c *MockCamera) FPS() int { return DefaultFPS }

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns the number of frames handed out since creation.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Remaining returns how many frames are left before the recording ends.
// A looping camera always has its whole recording left.
func (c *MockCamera) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop {
		return len(c.recording)
	}
	return len(c.recording) - c.next
}
