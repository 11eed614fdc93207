package watcher

import (
	"sync"
	"time"
)

// hideCooldown is how long after an explicit hide the auto-show signal
// stays suppressed
const hideCooldown = 2 * time.Second

// HideState records the moment the user last dismissed the window. It is
// shared between the command surface (which records hides) and the watcher
// (which consults it), so access is mutex-guarded.
type HideState struct {
	mu       sync.Mutex
	hiddenAt time.Time
}

// MarkHidden records the current time as the most recent hide
func (h *HideState) MarkHidden() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hiddenAt = time.Now()
}

// RecentlyHidden reports whether a hide occurred within the cooldown
// window before now.
func (h *HideState) RecentlyHidden(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hiddenAt.IsZero() {
		return false
	}
	return now.Sub(h.hiddenAt) < hideCooldown
}
