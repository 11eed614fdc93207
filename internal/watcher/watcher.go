// Package watcher detects new-message arrival in the UDB by observing its
// write-ahead log. The WAL sibling is the reliable low-latency signal of a
// committed write; the main database file does not change synchronously.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/quiet"
	"github.com/minjae/udbridge/internal/udb"
)

// walSuffix is appended by the storage engine to the database file name
const walSuffix = "-wal"

// Notifier receives watcher signals. UDBChanged fires on every confirmed
// new message; ShowRequested fires only when no suppression applies.
type Notifier interface {
	UDBChanged()
	ShowRequested()
}

// Watcher observes the UDB's parent directory and emits a signal when the
// latest message id advances. One watcher per configured UDB path, running
// for the lifetime of the process unless stopped.
type Watcher struct {
	udbPath string
	walPath string

	reader   *udb.Reader
	notifier Notifier
	hide     *HideState
	schedule quiet.Schedule
	logger   *logrus.Logger

	lastSeenID          *int64
	baselineInitialized bool

	fsw      *fsnotify.Watcher
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher for the UDB at udbPath
func New(udbPath string, reader *udb.Reader, notifier Notifier, hide *HideState, schedule quiet.Schedule, logger *logrus.Logger) *Watcher {
	return &Watcher{
		udbPath:  udbPath,
		walPath:  udbPath + walSuffix,
		reader:   reader,
		notifier: notifier,
		hide:     hide,
		schedule: schedule,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start installs the file-system watcher and launches the event loop.
// Failure to install a notifier is logged, not fatal: the watcher simply
// never activates and the rest of the application keeps working.
func (w *Watcher) Start() {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.WithError(err).Warn("Failed to create file watcher; change detection disabled")
		close(w.done)
		return
	}
	w.fsw = fsw

	// Watch the parent directory, not the WAL file itself: the WAL may not
	// exist yet and is deleted/recreated by the foreign process.
	parent := filepath.Dir(w.udbPath)
	if err := fsw.Add(parent); err != nil {
		w.logger.WithError(err).WithField("dir", parent).Warn("Failed to watch UDB directory; change detection disabled")
		fsw.Close()
		close(w.done)
		return
	}

	// Seed the baseline so the first event after startup cannot fire a
	// spurious notification.
	if id, err := w.reader.LatestID(w.udbPath); err == nil {
		w.lastSeenID = id
		w.baselineInitialized = id != nil
	}

	w.logger.WithField("path", w.udbPath).Info("UDB watcher started")
	go w.run()
}

// Stop terminates the event loop and releases the file-system watcher.
// Safe to call more than once, and after a failed Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Watcher) run() {
	defer close(w.done)
	defer w.fsw.Close()

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Debug("File watcher error")
		}
	}
}

// handleEvent filters one raw file-system event and, when it qualifies,
// re-reads the latest id and emits signals.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.isWALPath(event.Name) {
		return
	}
	if !shouldProcess(event.Op, w.walExists()) {
		return
	}

	// Only the aggregate id is read on the event path; full rows are never
	// loaded here.
	currentID, err := w.reader.LatestID(w.udbPath)
	if err != nil {
		// Treated as "no change this tick"; the state is left alone so a
		// later successful read still detects the accumulated change.
		return
	}

	if w.observe(currentID) {
		w.notifier.UDBChanged()
		if !w.suppressed(time.Now()) {
			w.notifier.ShowRequested()
		}
	}
}

// isWALPath reports whether an event path refers to the watched WAL file.
// Paths are canonicalized where possible; when that fails (the file may
// already be gone) raw equality is used.
func (w *Watcher) isWALPath(name string) bool {
	walCanonical, walErr := filepath.EvalSymlinks(w.walPath)
	if canonical, err := filepath.EvalSymlinks(name); err == nil && walErr == nil {
		return canonical == walCanonical
	}
	return filepath.Clean(name) == filepath.Clean(w.walPath)
}

// shouldProcess applies the event-kind filter: create and write events
// count, and only while the WAL file actually exists. Transient
// create/delete churn while the foreign app is offline is dropped here.
func shouldProcess(op fsnotify.Op, walExists bool) bool {
	if op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	return walExists
}

func (w *Watcher) walExists() bool {
	_, err := os.Stat(w.walPath)
	return err == nil
}

// observe folds a freshly read latest id into the watcher state and
// reports whether it represents a new message. A nil currentID (empty or
// missing table) never counts as new and does not disturb the baseline.
func (w *Watcher) observe(currentID *int64) bool {
	if currentID == nil {
		return false
	}
	var isNew bool
	if w.lastSeenID != nil {
		isNew = *currentID > *w.lastSeenID
	} else {
		// First id ever seen: only new if the store was empty at startup,
		// not if the baseline read raced with this very event.
		isNew = !w.baselineInitialized
	}
	w.lastSeenID = currentID
	w.baselineInitialized = true
	return isNew
}

// suppressed reports whether auto-show must be withheld right now: either
// the user hid the window moments ago, or class is in session.
func (w *Watcher) suppressed(now time.Time) bool {
	if w.hide != nil && w.hide.RecentlyHidden(now) {
		return true
	}
	return w.schedule.Contains(now)
}
