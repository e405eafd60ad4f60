package capture

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/fixtures"
)

func TestMockCamera_Playback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame1 := fixtures.SolidFrame(480, 640, 10)
	defer frame1.Close()
	frame2 := fixtures.SolidFrame(480, 640, 20)
	defer frame2.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame1, &frame2}, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() before Open() error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		f.Close()
	}

	// Third read should fail (no loop)
	if _, err := cam.ReadFrame(); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted after all frames consumed, got %v", err)
	}
	if cam.Reads() != 2 {
		t.Errorf("Reads() = %d, want 2", cam.Reads())
	}
	if cam.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", cam.Remaining())
	}

	// Reopening rewinds the recording.
	cam.Open()
	if cam.Remaining() != 2 {
		t.Errorf("Remaining() after reopen = %d, want 2", cam.Remaining())
	}
}

func TestMockCamera_EmptyRecording(t *testing.T) {
	for _, loop := range []bool{false, true} {
		cam := NewMockCamera(nil, loop)
		cam.Open()
		if _, err := cam.ReadFrame(); !errors.Is(err, ErrSourceExhausted) {
			t.Errorf("loop=%v: ReadFrame() error = %v, want ErrSourceExhausted", loop, err)
		}
		cam.Close()
		if cam.IsOpen() {
			t.Errorf("loop=%v: IsOpen() = true after Close()", loop)
		}
	}
}

func TestMockCamera_Loop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := fixtures.SolidFrame(480, 640, 0)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	// Should loop indefinitely
	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_ReturnsClones(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := fixtures.SolidFrame(10, 10, 7)
	defer frame.Close()

	cam := NewMockCamera([]*gocv.Mat{&frame}, true)
	cam.Open()
	defer cam.Close()

	f, err := cam.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame() error = %v", err)
	}
	f.SetTo(gocv.NewScalar(0, 0, 0, 0))
	f.Close()

	if got := frame.GetVecbAt(0, 0)[0]; got != 7 {
		t.Errorf("source frame modified: got %d, want 7", got)
	}
}
