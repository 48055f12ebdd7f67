package logging

import "sync"

// Toggle names bound by AttachToggles.
const (
	ToggleOn  = "on"
	ToggleOff = "off"
)

var verbose struct {
	mu    sync.Mutex
	on    bool
	prior Level
}

// On switches the default logger to debug level and reports the new
// verbose state (always true).
func On() bool {
	verbose.mu.Lock()
	defer verbose.mu.Unlock()

	if !verbose.on {
		verbose.prior = defaultLogger.Level()
		verbose.on = true
	}
	defaultLogger.SetLevel(LevelDebug)
	return true
}

// Off restores the level that was active before On and reports the new
// verbose state (always false).
func Off() bool {
	verbose.mu.Lock()
	defer verbose.mu.Unlock()

	if verbose.on {
		defaultLogger.SetLevel(verbose.prior)
		verbose.on = false
	}
	return false
}

// Verbose reports whether On is in effect.
func Verbose() bool {
	verbose.mu.Lock()
	defer verbose.mu.Unlock()
	return verbose.on
}

// Binder is something that can expose named toggles to a user, such as a
// key map or an HTTP mux.
type Binder interface {
	Bound(name string) bool
	Bind(name string, fn func() bool)
}

// AttachToggles binds On and Off to b under ToggleOn and ToggleOff unless
// b already has something under those names. It does nothing when b is
// nil or the default logger has no output, and swallows any panic raised
// by the binder.
func AttachToggles(b Binder) {
	if b == nil || defaultLogger.Output() == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	if !b.Bound(ToggleOn) {
		b.Bind(ToggleOn, On)
	}
	if !b.Bound(ToggleOff) {
		b.Bind(ToggleOff, Off)
	}
}
