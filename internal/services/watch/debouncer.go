package watch

import (
	"sort"
	"sync"
	"time"
)

// Debouncer collects changed paths and flushes them once no change has arrived
// for the configured window.
type Debouncer struct {
	window       time.Duration
	pendingPaths map[string]struct{}
	mutex        sync.Mutex
	timer        *time.Timer
	onFlush      func([]string)
	stopped      bool
}

// NewDebouncer returns a Debouncer calling onFlush with the sorted pending paths.
func NewDebouncer(window time.Duration, onFlush func([]string)) *Debouncer {
	return &Debouncer{
		window:       window,
		pendingPaths: make(map[string]struct{}),
		onFlush:      onFlush,
	}
}

// Add records a changed path and restarts the quiet window.
func (debouncer *Debouncer) Add(changedPath string) {
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()

	if debouncer.stopped {
		return
	}
	debouncer.pendingPaths[changedPath] = struct{}{}
	if debouncer.timer != nil {
		debouncer.timer.Stop()
	}
	debouncer.timer = time.AfterFunc(debouncer.window, debouncer.flush)
}

// Stop cancels the pending flush and discards pending paths.
func (debouncer *Debouncer) Stop() {
	debouncer.mutex.Lock()
	defer debouncer.mutex.Unlock()

	debouncer.stopped = true
	if debouncer.timer != nil {
		debouncer.timer.Stop()
		debouncer.timer = nil
	}
	debouncer.pendingPaths = make(map[string]struct{})
}

func (debouncer *Debouncer) flush() {
	debouncer.mutex.Lock()
	if debouncer.stopped || len(debouncer.pendingPaths) == 0 {
		debouncer.mutex.Unlock()
		return
	}
	changedPaths := make([]string, 0, len(debouncer.pendingPaths))
	for changedPath := range debouncer.pendingPaths {
		changedPaths = append(changedPaths, changedPath)
	}
	debouncer.pendingPaths = make(map[string]struct{})
	debouncer.timer = nil
	debouncer.mutex.Unlock()

	sort.Strings(changedPaths)
	if debouncer.onFlush != nil {
		debouncer.onFlush(changedPaths)
	}
}
