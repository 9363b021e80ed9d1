package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and hands each valid result to fn.
// Invalid files are logged and skipped; the previous config stays in
// effect. It blocks until ctx is done.
func Watch(ctx context.Context, path string, log logrus.FieldLogger, fn func(*Config)) error {
	if log == nil {
		log = logrus.StandardLogger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and SaveTo replace the file by rename.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	name := filepath.Clean(path)
	log = log.WithField("path", name)
	log.Debug("Watching config")

	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.WithField("op", ev.Op.String()).Debug("Config change detected")
			timer.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Config watcher error")

		case <-timer.C:
			res, err := LoadFromPath(name)
			if err != nil {
				log.WithError(err).Warn("Ignoring invalid config")
				continue
			}
			if !res.Exists {
				continue
			}
			log.Info("Config reloaded")
			fn(res.Config)
		}
	}
}
