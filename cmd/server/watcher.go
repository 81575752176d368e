package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// configWatcher reloads the config file whenever it is written.
type configWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	store   *configStore
}

// newConfigWatcher watches the directory of path, so editors that replace
// the file instead of writing it in place are noticed too.
func newConfigWatcher(path string, store *configStore) (*configWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &configWatcher{watcher: w, path: filepath.Clean(path), store: store}, nil
}

func (cw *configWatcher) run(ctx context.Context) {
	defer cw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Println("config file changed, reloading")
			cfg, err := LoadConfig(cw.path)
			if err != nil {
				log.Printf("failed to reload config: %v", err)
				continue
			}
			cw.store.update(cfg)
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher error: %v", err)
		}
	}
}
