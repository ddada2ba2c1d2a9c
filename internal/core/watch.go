package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay absorbs editors that write a file in several rapid syscalls
// (write-then-rename) so a single edit doesn't trigger multiple installs.
const debounceDelay = 1 * time.Second

// WatchManifest watches manifestPath for changes and invokes callback after
// each settled edit, until the watcher errors or its process is interrupted.
// It also watches the manifest's directory so an editor's delete-then-create
// save pattern is still observed.
func WatchManifest(manifestPath string, callback func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(manifestPath); err != nil {
		return fmt.Errorf("watch %s: %w", manifestPath, err)
	}
	dir := filepath.Dir(manifestPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	log.Printf("watching %s for changes", manifestPath)

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != manifestPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				if _, statErr := os.Stat(manifestPath); statErr != nil {
					log.Printf("manifest no longer readable: %v", statErr)
					return
				}
				if err := callback(); err != nil {
					log.Printf("install failed: %v", err)
				} else {
					log.Printf("install completed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}
