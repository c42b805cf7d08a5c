package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ambiencectl/internal/models"
	"github.com/desertthunder/ambiencectl/internal/shared"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Seed is backend content loaded from a YAML (or JSON) file:
//
//	playlists:
//	  Chill:
//	    https://example.com/a: Song A
//	ambience:
//	  https://example.com/rain: Rain
type Seed struct {
	Playlists models.PlaylistCollection `yaml:"playlists"`
	Ambience  models.Playlist           `yaml:"ambience"`
}

// LoadSeed reads a seed file. A playlist using the reserved ambience name is dropped.
func LoadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("%w: seed file %s: %v", shared.ErrInvalidInput, path, err)
	}
	if s.Playlists == nil {
		s.Playlists = models.PlaylistCollection{}
	}
	delete(s.Playlists, models.AmbienceName)
	if s.Ambience == nil {
		s.Ambience = models.Playlist{}
	}
	return s, nil
}

// Reseed replaces the stored playlists and ambience. Connected clients see the change on their next fetch.
func (b *Backend) Reseed(s Seed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playlists = s.Playlists.Clone()
	b.ambience = s.Ambience.Clone()
	b.logger.Info("backend reseeded", "playlists", len(b.playlists), "ambience", len(b.ambience))
}

// WatchSeed reloads path into b whenever it is written until ctx is done.
// The parent directory is watched so editors that replace the file are followed.
func WatchSeed(ctx context.Context, b *Backend, path string, logger *log.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Debug("watching seed file", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			seed, err := LoadSeed(abs)
			if err != nil {
				logger.Warn("seed reload failed", "path", abs, "error", err)
				continue
			}
			b.Reseed(seed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("seed watcher error", "error", err)
		}
	}
}
