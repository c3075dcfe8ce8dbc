package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/voidarchitect/corevk/engine/core"
)

// Watcher reloads the engine configuration whenever its backing file
// changes on disk and queues the result for PollReload. It applies
// nothing itself; a reloaded config takes effect only where a caller
// polls for it and applies it.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	pending chan *EngineConfig
}

// NewWatcher starts watching path for writes. Call Close when done.
func NewWatcher(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    path,
		fsw:     fsw,
		pending: make(chan *EngineConfig, 1),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				core.LogError("config hot-reload failed for '%s': %s", w.path, err.Error())
				continue
			}
			// Drop any previous pending reload; only the latest matters.
			select {
			case <-w.pending:
			default:
			}
			w.pending <- cfg
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher error: %s", err.Error())
		}
	}
}

// PollReload returns a config reloaded since the last call, or nil if
// nothing changed. Intended to be called once per frame boundary.
func (w *Watcher) PollReload() *EngineConfig {
	select {
	case cfg := <-w.pending:
		return cfg
	default:
		return nil
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
