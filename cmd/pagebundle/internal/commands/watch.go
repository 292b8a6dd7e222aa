package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// watch calls rebuild once changes under dir have been quiet for debounce. Changes under
// ignore, usually the output directory, are skipped. It returns when ctx is done.
func watch(ctx context.Context, dir, ignore string, debounce time.Duration, rebuild func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, dir, ignore); err != nil {
		return err
	}

	log.Info().Str("dir", dir).Dur("debounce", debounce).Msg("Watching for changes")

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if within(event.Name, ignore) || event.Has(fsnotify.Chmod) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name, ignore); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}
				}
			}

			log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("Source changed")
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if err := rebuild(ctx); err != nil {
				// keep serving the last good build
				log.Error().Err(err).Msg("Rebuild failed")
			}
		}
	}
}

func addTree(watcher *fsnotify.Watcher, dir, ignore string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if within(path, ignore) || d.Name() == "node_modules" {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// within reports whether path is dir or below it
func within(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
