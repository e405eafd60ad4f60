// Package tray provides a system tray interface for handcount.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/detector"
)

// Tray shows the live finger count and calibration state in the system
// tray and offers a mask toggle and quit.
type Tray struct {
	onToggleMask func(show bool)
	onOpenStream func()
	onQuit       func()
	showMask     bool
	fingers      string
	status       string
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuFingers *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuMask    *systray.MenuItem
}

// New creates a new Tray instance with the mask window hidden.
func New(showMask bool) *Tray {
	return &Tray{
		showMask: showMask,
		fingers:  FingersLabel(detector.Result{}),
		status:   StatusLabel(detector.Result{}),
	}
}

// OnToggleMask sets the callback called when the mask item is clicked.
func (t *Tray) OnToggleMask(fn func(show bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggleMask = fn
}

// OnOpenStream sets the callback called when the stream item is clicked.
func (t *Tray) OnOpenStream(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenStream = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handcount")
	systray.SetTooltip("handcount finger counter")

	t.mu.Lock()
	t.menuFingers = systray.AddMenuItem(t.fingers, "Fingers in the last frame")
	t.menuFingers.Disable()
	t.menuStatus = systray.AddMenuItem(t.status, "Background model state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuMask = systray.AddMenuItemCheckbox("Show silhouette", "Show the thresholded mask window", t.showMask)
	t.mu.Unlock()

	menuStream := systray.AddMenuItem("Open Stream...", "Open the annotated stream in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handcount")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuMask.ClickedCh:
				t.handleToggleMask()
			case <-menuStream.ClickedCh:
				t.handleOpenStream()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleToggleMask handles the mask menu item click.
func (t *Tray) handleToggleMask() {
	t.mu.Lock()
	t.showMask = !t.showMask
	show := t.showMask

	if show {
		t.menuMask.Check()
	} else {
		t.menuMask.Uncheck()
	}

	callback := t.onToggleMask
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(show)
	}
}

// handleOpenStream handles the stream menu item click.
func (t *Tray) handleOpenStream() {
	t.mu.RLock()
	callback := t.onOpenStream
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Publish updates the menu from a frame result. Titles are only touched
// when they change.
func (t *Tray) Publish(r detector.Result, _ gocv.Mat) {
	fingers, status := FingersLabel(r), StatusLabel(r)

	t.mu.Lock()
	defer t.mu.Unlock()

	if fingers != t.fingers {
		t.fingers = fingers
		if t.menuFingers != nil {
			t.menuFingers.SetTitle(fingers)
		}
	}
	if status != t.status {
		t.status = status
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(status)
		}
	}
}

// Labels returns the current finger and status lines.
func (t *Tray) Labels() (fingers, status string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fingers, t.status
}

// ShowMask returns the current mask toggle state.
func (t *Tray) ShowMask() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.showMask
}

// FingersLabel formats the finger line for r.
func FingersLabel(r detector.Result) string {
	if !r.Detected {
		return "Fingers: -"
	}
	return fmt.Sprintf("Fingers: %d", r.Fingers)
}

// StatusLabel formats the calibration line for r.
func StatusLabel(r detector.Result) string {
	switch {
	case r.Frame == 0:
		return "Waiting for frames"
	case r.Calibrating:
		return fmt.Sprintf("Calibrating (%d left)", r.Remaining)
	default:
		return "Background frozen"
	}
}
