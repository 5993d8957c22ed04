package scripting

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Watcher re-runs a callback when any of a set of script files changes.
type Watcher struct {
	logger   zerolog.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
	files    map[string]bool
}

// NewWatcher watches the directories holding files and reports changes to
// those files only. Directories are watched so editors that replace files
// by rename are still noticed.
func NewWatcher(files []string, logger zerolog.Logger, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		logger:   logger,
		debounce: debounce,
		watcher:  fw,
		files:    make(map[string]bool),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		abs = filepath.Clean(abs)
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Run blocks until ctx is done, calling onChange with the changed file after
// each debounced burst of writes.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	defer w.watcher.Close()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}

			w.logger.Debug().
				Str("file", name).
				Str("op", event.Op.String()).
				Msg("Script file changed")

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				if ctx.Err() == nil {
					onChange(name)
				}
			})
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("Script watcher error")
		}
	}
}
