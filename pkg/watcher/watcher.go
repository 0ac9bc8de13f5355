// Package watcher re-triggers resolution when fact files, the dependency
// manifest or the configuration file change on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/ng-graph/pkg/facts"
	"github.com/ritzau/ng-graph/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeConfig ChangeType = iota
	ChangeTypeManifest
	ChangeTypeFacts
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeConfig:
		return "config"
	case ChangeTypeManifest:
		return "manifest"
	case ChangeTypeFacts:
		return "facts"
	}
	return "unknown"
}

// batchDelay groups bursts of raw file system events into one ChangeEvent per type
const batchDelay = 100 * time.Millisecond

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// Targets names what a FileWatcher observes. Empty paths are not watched.
type Targets struct {
	FactsDir     string // Watched recursively
	ManifestPath string
	ConfigPath   string
}

// FileWatcher watches the inputs of a resolution run
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	factsDir string
	manifest string
	config   string
	events   chan ChangeEvent
	logger   *slog.Logger
}

// NewFileWatcher creates a new file system watcher
func NewFileWatcher(targets Targets) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		factsDir: absPath(targets.FactsDir),
		manifest: absPath(targets.ManifestPath),
		config:   absPath(targets.ConfigPath),
		events:   make(chan ChangeEvent, 100),
		logger:   logging.New("watcher"),
	}, nil
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Start begins watching. Events are delivered until ctx is cancelled, after
// which the Events channel is closed.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if fw.factsDir != "" {
		count, err := fw.watchTree(fw.factsDir)
		if err != nil {
			fw.watcher.Close()
			return err
		}
		fw.logger.Info("Monitoring fact directories", "root", fw.factsDir, "count", count)
	}

	// Single files are watched through their directory so that editors
	// replacing the file do not drop the watch
	for _, file := range []string{fw.manifest, fw.config} {
		if file == "" {
			continue
		}
		if err := fw.watcher.Add(filepath.Dir(file)); err != nil {
			fw.logger.Warn("Failed to watch file", "path", file, "error", err)
		}
	}

	go fw.processEvents(ctx)
	return nil
}

// watchTree adds root and every directory below it that may hold fact files
func (fw *FileWatcher) watchTree(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // Skip directories we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && facts.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			fw.logger.Warn("Failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return count, nil
}

// Classify maps a changed path to the input it belongs to
func (fw *FileWatcher) Classify(path string) (ChangeType, bool) {
	path = absPath(path)
	switch {
	case fw.config != "" && path == fw.config:
		return ChangeTypeConfig, true
	case fw.manifest != "" && path == fw.manifest:
		return ChangeTypeManifest, true
	case fw.factsDir != "" && facts.IsFactFile(path) && within(fw.factsDir, path):
		return ChangeTypeFacts, true
	}
	return 0, false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// processEvents batches file system events by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchDelay)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeManifest, ChangeTypeFacts} {
			if len(pending[t]) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: t, Paths: pending[t], Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		pending = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories below the facts root are watched as they appear
			if event.Has(fsnotify.Create) && fw.factsDir != "" && within(fw.factsDir, event.Name) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !facts.SkipDir(info.Name()) {
					if _, err := fw.watchTree(event.Name); err != nil {
						fw.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			t, ok := fw.Classify(event.Name)
			if !ok {
				continue
			}
			fw.logger.Log(ctx, logging.LevelTrace, "File change", "type", t, "path", event.Name, "op", event.Op.String())
			pending[t] = append(pending[t], event.Name)
			flushTimer.Reset(batchDelay)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("Watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
