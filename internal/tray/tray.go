// Package tray provides a system tray menu for the yuletide scene.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu. It shows the scene mode and the gesture input
// status, and forwards clicks to the registered callbacks.
type Tray struct {
	onToggleMode    func()
	onToggleGesture func(enabled bool)
	onOpen          func()
	onQuit          func()

	mode    string
	status  string
	enabled bool
	mu      sync.RWMutex

	// Menu items stored for later updates
	menuMode    *systray.MenuItem
	menuGesture *systray.MenuItem
	menuStatus  *systray.MenuItem
}

// New creates a Tray showing tree mode with gesture input enabled.
func New() *Tray {
	return &Tray{
		mode:    "TREE",
		status:  "initializing",
		enabled: true,
	}
}

// OnToggleMode sets the callback for the mode menu item.
func (t *Tray) OnToggleMode(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggleMode = fn
}

// OnToggleGesture sets the callback called with the new gesture switch position.
func (t *Tray) OnToggleGesture(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggleGesture = fn
}

// OnOpen sets the callback for the "Open in Browser" item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called and must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Yuletide")
	systray.SetTooltip("Yuletide gesture tree")

	t.mu.Lock()
	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Switch between tree and explode")
	t.menuGesture = systray.AddMenuItem(gestureTitle(t.enabled), "Toggle hand gesture input")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem(statusTitle(t.status), "Camera and hand tracker")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open in Browser...", "Open the web view")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Yuletide")

	go func() {
		for {
			select {
			case <-t.menuMode.ClickedCh:
				t.handleToggleMode()
			case <-t.menuGesture.ClickedCh:
				t.handleToggleGesture()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggleMode() {
	t.mu.RLock()
	callback := t.onToggleMode
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleToggleGesture() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(enabled))
	}
	callback := t.onToggleGesture
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMode updates the mode item to show state ("TREE" or "EXPLODE").
func (t *Tray) SetMode(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = state
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(state))
	}
}

// SetStatus updates the gesture input status line.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(status))
	}
}

// SetGestureEnabled updates the gesture switch without calling back.
func (t *Tray) SetGestureEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.enabled = enabled
	if t.menuGesture != nil {
		t.menuGesture.SetTitle(gestureTitle(enabled))
	}
}

// IsGestureEnabled returns the gesture switch position.
func (t *Tray) IsGestureEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the state last passed to SetMode.
func (t *Tray) Mode() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func modeTitle(state string) string {
	if state == "EXPLODE" {
		return "✦ Explode Mode"
	}
	return "▲ Tree Mode"
}

func gestureTitle(enabled bool) string {
	if enabled {
		return "● Gestures On"
	}
	return "○ Gestures Off"
}

func statusTitle(status string) string {
	switch status {
	case "ready":
		return "Camera: ready"
	case "unavailable":
		return "Camera: unavailable"
	default:
		return "Camera: starting..."
	}
}
