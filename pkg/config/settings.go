package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/larry-brewer/jsonauth/pkg/observability"
	"github.com/larry-brewer/jsonauth/pkg/provider"
)

// LoadProviderSettings reads provider settings from a JSON file. The file
// carries the same keys the admin panel exposes (see provider.ConfigFields).
func LoadProviderSettings(path string) (provider.Config, error) {
	var cfg provider.Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SettingsWatcher reloads the provider settings file when it changes and
// hands each valid revision to an apply callback. Invalid revisions are
// logged and skipped; the previous settings stay in effect.
type SettingsWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	logger  *observability.Logger
	apply   func(provider.Config) error
	done    chan struct{}
}

// WatchProviderSettings starts watching path for changes. The parent
// directory is watched rather than the file itself so that editors and
// configuration tools that replace the file atomically are still seen.
func WatchProviderSettings(path string, logger *observability.Logger, apply func(provider.Config) error) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch settings directory: %w", err)
	}

	sw := &SettingsWatcher{
		watcher: watcher,
		path:    filepath.Clean(path),
		logger:  logger,
		apply:   apply,
		done:    make(chan struct{}),
	}
	go sw.run()
	return sw, nil
}

func (sw *SettingsWatcher) run() {
	defer close(sw.done)
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != sw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sw.reload()
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.WithError(err).Warn("Settings watcher error")
		}
	}
}

func (sw *SettingsWatcher) reload() {
	cfg, err := LoadProviderSettings(sw.path)
	if err != nil {
		sw.logger.WithError(err).WithField("path", sw.path).
			Warn("Ignoring invalid provider settings revision")
		return
	}
	if err := sw.apply(cfg); err != nil {
		sw.logger.WithError(err).Warn("Failed to apply provider settings")
		return
	}
	sw.logger.WithField("path", sw.path).Info("Reloaded provider settings")
}

// Close stops the watcher and waits for the event loop to exit.
func (sw *SettingsWatcher) Close() error {
	err := sw.watcher.Close()
	<-sw.done
	return err
}
