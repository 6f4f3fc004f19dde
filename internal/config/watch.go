package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads the config file when it is written and hands the new
// config to a callback. Invalid configs are logged and skipped.
type Watcher struct {
	Path     string
	Cooldown time.Duration

	lastReload time.Time
}

// Start watches the file's directory so editors that replace the file are seen.
// It blocks until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context, onUpdate func(*Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	target := filepath.Clean(w.Path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(onUpdate)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload(onUpdate func(*Config)) {
	if time.Since(w.lastReload) < w.Cooldown {
		return
	}
	cfg, err := Load(w.Path)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Warn().Err(err).Str("path", w.Path).Msg("config reload skipped")
		return
	}
	w.lastReload = time.Now()
	log.Info().Str("path", w.Path).Msg("config reloaded")
	onUpdate(cfg)
}
