package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ChangeEvent, timeout time.Duration) ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(timeout):
		t.Fatal("timeout waiting for change event")
	}
	return ChangeEvent{}
}

func TestDebouncerBatchesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeFacts, Paths: []string{"a.facts.json"}}
	input <- ChangeEvent{Type: ChangeTypeFacts, Paths: []string{"b.facts.json", "a.facts.json"}}
	input <- ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"ng-graph.toml"}}

	// Config is flushed before facts
	first := receive(t, d.Output(), time.Second)
	assert.Equal(t, ChangeTypeConfig, first.Type)

	second := receive(t, d.Output(), time.Second)
	assert.Equal(t, ChangeTypeFacts, second.Type)
	assert.Equal(t, []string{"a.facts.json", "b.facts.json"}, second.Paths)

	select {
	case event := <-d.Output():
		t.Errorf("unexpected extra event %+v", event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDebouncerMaxWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 80*time.Millisecond, 150*time.Millisecond)
	d.Start(ctx)

	// Events keep arriving faster than the quiet period
	stop := time.After(400 * time.Millisecond)
	start := time.Now()
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case input <- ChangeEvent{Type: ChangeTypeFacts, Paths: []string{"x.facts.json"}}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	receive(t, d.Output(), time.Second)
	assert.Less(t, time.Since(start), 350*time.Millisecond, "max wait should force a flush")
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeManifest, Paths: []string{"package.json"}}
	close(input)

	event := receive(t, d.Output(), time.Second)
	assert.Equal(t, ChangeTypeManifest, event.Type)

	_, ok := <-d.Output()
	assert.False(t, ok, "output should close after input")
}

func TestAnalyzeChanges(t *testing.T) {
	tests := []struct {
		name         string
		event        ChangeEvent
		reloadConfig bool
		rerun        bool
		reason       string
	}{
		{"config", ChangeEvent{Type: ChangeTypeConfig, Paths: []string{"ng-graph.toml"}}, true, true, "configuration changed"},
		{"manifest", ChangeEvent{Type: ChangeTypeManifest, Paths: []string{"package.json"}}, false, true, "dependency manifest changed"},
		{"one fact file", ChangeEvent{Type: ChangeTypeFacts, Paths: []string{"out/src/a.ts.facts.json"}}, false, true, "fact file a.ts.facts.json changed"},
		{"many fact files", ChangeEvent{Type: ChangeTypeFacts, Paths: []string{"a.facts.json", "b.facts.json"}}, false, true, "2 fact files changed"},
		{"unknown", ChangeEvent{Type: ChangeType(42)}, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := AnalyzeChanges(tt.event)
			assert.Equal(t, tt.reloadConfig, a.ReloadConfig)
			assert.Equal(t, tt.rerun, a.Rerun)
			assert.Equal(t, tt.reason, a.Reason)
			assert.Equal(t, tt.event.Paths, a.ChangedFiles)
		})
	}
}

func TestClassify(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(Targets{
		FactsDir:     filepath.Join(root, "facts"),
		ManifestPath: filepath.Join(root, "package.json"),
		ConfigPath:   filepath.Join(root, "ng-graph.toml"),
	})
	require.NoError(t, err)
	defer fw.watcher.Close()

	tests := []struct {
		path string
		want ChangeType
		ok   bool
	}{
		{filepath.Join(root, "ng-graph.toml"), ChangeTypeConfig, true},
		{filepath.Join(root, "package.json"), ChangeTypeManifest, true},
		{filepath.Join(root, "facts", "src", "a.ts.facts.json"), ChangeTypeFacts, true},
		{filepath.Join(root, "facts", "src", "a.ts.facts.yaml"), ChangeTypeFacts, true},
		{filepath.Join(root, "facts", "src", "a.ts"), 0, false},
		{filepath.Join(root, "elsewhere", "a.ts.facts.json"), 0, false},
		{filepath.Join(root, "facts-old", "a.ts.facts.json"), 0, false},
	}

	for _, tt := range tests {
		got, ok := fw.Classify(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.path)
		}
	}
}

func TestFileWatcherReportsFactChanges(t *testing.T) {
	root := t.TempDir()
	factsDir := filepath.Join(root, "facts")
	require.NoError(t, os.MkdirAll(filepath.Join(factsDir, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(factsDir, "node_modules"), 0o755))

	fw, err := NewFileWatcher(Targets{
		FactsDir:     factsDir,
		ManifestPath: filepath.Join(root, "package.json"),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(factsDir, "src", "a.ts.facts.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(factsDir, "src", "notes.txt"), []byte("x"), 0o644))

	event := receive(t, fw.Events(), 2*time.Second)
	assert.Equal(t, ChangeTypeFacts, event.Type)
	require.NotEmpty(t, event.Paths)
	for _, p := range event.Paths {
		assert.Equal(t, "a.ts.facts.json", filepath.Base(p))
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0o644))
	event = receive(t, fw.Events(), 2*time.Second)
	assert.Equal(t, ChangeTypeManifest, event.Type)

	cancel()
	for range fw.Events() {
	}
}
