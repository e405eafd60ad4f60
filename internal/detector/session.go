package detector

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/vision"
)

// ErrClosed is returned by Detect after Close.
var ErrClosed = errors.New("detector session is closed")

// Session implements Detector with background differencing and the
// convex-hull ring heuristic. It owns the background model for one run.
//
// Pipeline logic:
// 1. While calibrating, every frame is blended into the background
// 2. After Limit frames the background freezes
// 3. Frozen frames are differenced into a silhouette
// 4. The largest contour is taken as the hand
// 5. Fingers are counted on the hull of that contour
type Session struct {
	id         string
	config     Config
	background *vision.BackgroundModel
	frames     int
	closed     bool
	mu         sync.Mutex
}

// NewSession validates config and creates a Session in the calibrating phase.
func NewSession(config Config) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detector config: %w", err)
	}

	return &Session{
		id:         uuid.NewString(),
		config:     config,
		background: vision.NewBackgroundModel(config.Weight, config.Limit),
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Phase returns the background model phase.
func (s *Session) Phase() vision.Phase {
	return s.background.Phase()
}

// Config returns the session configuration.
func (s *Session) Config() Config {
	return s.config
}

// Detect analyzes one ROI frame.
func (s *Session) Detect(roi *gocv.Mat) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrClosed
	}
	if roi == nil || roi.Empty() {
		return Result{}, errors.New("detect: empty frame")
	}

	s.frames++
	result := Result{
		SessionID: s.id,
		Frame:     s.frames,
	}

	if s.background.Phase() == vision.Calibrating {
		if err := s.background.Accumulate(*roi); err != nil {
			return result, fmt.Errorf("frame %d: %w", s.frames, err)
		}
		result.Calibrating = true
		result.Remaining = s.background.Remaining()
		if s.background.Phase() == vision.Frozen {
			log.Printf("Background calibrated after %d frames (session %s)", s.frames, s.id)
		}
		return result, nil
	}

	mask, err := s.background.Subtract(*roi, s.config.Silhouette)
	if err != nil {
		mask.Close()
		return result, fmt.Errorf("frame %d: %w", s.frames, err)
	}
	result.Mask = &mask

	hand, ok := vision.SelectMaxContour(mask)
	if !ok {
		return result, nil
	}

	count := vision.CountFingers(mask, hand, s.config.Fingers)
	if count.Hull.Degenerate() {
		return result, nil
	}

	result.Detected = true
	result.Contour = hand
	result.Extremes = vision.FindExtremes(hand)
	result.Center = result.Extremes.Center()
	result.Hull = count.Hull
	result.HullExtremes = count.Extremes
	result.Radius = count.Radius
	result.Fingers = count.Fingers

	return result, nil
}

// Close releases the background model. Further Detect calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.background.Close()
	return nil
}
