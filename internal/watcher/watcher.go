// Package watcher watches the project root for marker entries appearing or
// disappearing and asks the dashboard for an early refresh.
package watcher

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harshul/stackdash/internal/logger"
)

// DefaultDebounce coalesces bursts of events (npm install touching
// node_modules thousands of times) into one refresh.
const DefaultDebounce = 500 * time.Millisecond

// MarkerWatcher calls onChange, debounced, whenever a marker entry in the
// project root is created, removed or renamed.
type MarkerWatcher struct {
	watcher  *fsnotify.Watcher
	root     string
	markers  map[string]bool
	debounce time.Duration
	onChange func()
	log      logger.Logger

	mu    sync.Mutex
	timer *time.Timer
	done  chan struct{}
	wg    sync.WaitGroup
}

// New creates a watcher for the given marker names (relative to root).
func New(root string, markers []string, debounce time.Duration, onChange func(), log logger.Logger) (*MarkerWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	set := make(map[string]bool, len(markers))
	for _, m := range markers {
		first := strings.Split(filepath.ToSlash(filepath.Clean(m)), "/")[0]
		if first != "" && first != "." {
			set[first] = true
		}
	}

	return &MarkerWatcher{
		watcher:  w,
		root:     root,
		markers:  set,
		debounce: debounce,
		onChange: onChange,
		log:      logger.OrNoop(log),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the project root.
func (mw *MarkerWatcher) Start() error {
	if err := mw.watcher.Add(mw.root); err != nil {
		return err
	}
	mw.wg.Add(1)
	go mw.handleEvents()
	mw.log.Debug("watching %s for markers %v", mw.root, mw.markers)
	return nil
}

// Close stops watching and cancels any pending callback.
func (mw *MarkerWatcher) Close() error {
	select {
	case <-mw.done:
		return nil
	default:
		close(mw.done)
	}

	mw.mu.Lock()
	if mw.timer != nil {
		mw.timer.Stop()
	}
	mw.mu.Unlock()

	err := mw.watcher.Close()
	mw.wg.Wait()
	return err
}

func (mw *MarkerWatcher) handleEvents() {
	defer mw.wg.Done()
	for {
		select {
		case <-mw.done:
			return
		case event, ok := <-mw.watcher.Events:
			if !ok {
				return
			}
			if mw.isMarkerEvent(event) {
				mw.log.Debug("marker event: %s %s", event.Op, event.Name)
				mw.schedule()
			}
		case err, ok := <-mw.watcher.Errors:
			if !ok {
				return
			}
			mw.log.Warn("watcher error: %v", err)
		}
	}
}

func (mw *MarkerWatcher) isMarkerEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	return mw.markers[filepath.Base(event.Name)]
}

func (mw *MarkerWatcher) schedule() {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	select {
	case <-mw.done:
		return
	default:
	}

	if mw.timer != nil {
		mw.timer.Stop()
	}
	mw.timer = time.AfterFunc(mw.debounce, mw.onChange)
}
