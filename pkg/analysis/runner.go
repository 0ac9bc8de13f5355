package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritzau/ng-graph/pkg/classify"
	"github.com/ritzau/ng-graph/pkg/collect"
	"github.com/ritzau/ng-graph/pkg/facts"
	"github.com/ritzau/ng-graph/pkg/imports"
	"github.com/ritzau/ng-graph/pkg/lens"
	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/manifest"
	"github.com/ritzau/ng-graph/pkg/model"
	"github.com/ritzau/ng-graph/pkg/modresolve"
)

// Run states published while a resolution run progresses
const (
	StateLoading     = "loading_facts"
	StateCollecting  = "collecting"
	StateClassifying = "classifying"
	StateFinalizing  = "finalizing"
	StateReady       = "ready"
	StateError       = "error"

	totalSteps = 4
)

// Publisher receives progress and results of resolution runs
type Publisher interface {
	PublishStatus(state, message string, step, total int) error
	SetReport(report *Report)
}

// Options configures a resolution run
type Options struct {
	Root             string // Project root for module resolution
	FactsDir         string // Directory searched for fact files
	ManifestPath     string // package.json, may be missing
	Policy           collect.Policy
	Extensions       []string
	Aliases          map[string]string
	ExternalPatterns []string
	CacheSize        int
}

// Runner orchestrates resolution runs over the fact files of a project
type Runner struct {
	opts      Options
	publisher Publisher
	mu        sync.Mutex // Prevent concurrent runs
	latest    *Report
	snapshot  *lens.GraphSnapshot
	logger    *slog.Logger
}

// NewRunner creates a new runner. publisher may be nil.
func NewRunner(opts Options, publisher Publisher) *Runner {
	return &Runner{
		opts:      opts,
		publisher: publisher,
		logger:    logging.New("analysis"),
	}
}

// SetOptions replaces the options used by subsequent runs
func (r *Runner) SetOptions(opts Options) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = opts
}

// Latest returns the report of the last successful run, or nil
func (r *Runner) Latest() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

// Run loads the fact files and resolves them into a report.
// reason is logged, e.g. "initial analysis" or "facts changed".
func (r *Runner) Run(ctx context.Context, reason string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.logger.Info("Starting resolution", "reason", reason)

	r.publish(StateLoading, "Loading fact files...", 1)
	docs, err := facts.Load(ctx, r.opts.FactsDir)
	if err != nil {
		return nil, r.fail(fmt.Errorf("failed to load facts: %w", err))
	}
	r.logger.Debug("Loaded fact files", "count", len(docs))

	m, err := manifest.Read(r.opts.ManifestPath)
	if err != nil {
		r.logger.Warn("Ignoring unreadable manifest", "path", r.opts.ManifestPath, "error", err)
		m = nil
	} else if m == nil {
		r.logger.Debug("No dependency manifest", "path", r.opts.ManifestPath)
	}

	modules, err := modresolve.NewFileSystemResolver(modresolve.Options{
		Root:             r.opts.Root,
		Extensions:       r.opts.Extensions,
		Aliases:          r.opts.Aliases,
		ExternalPatterns: r.opts.ExternalPatterns,
		CacheSize:        r.opts.CacheSize,
	})
	if err != nil {
		return nil, r.fail(fmt.Errorf("failed to configure module resolution: %w", err))
	}

	report, err := Resolve(docs, m, modules, r.opts.Policy, r.publish)
	if err != nil {
		return nil, r.fail(err)
	}
	report.Reason = reason
	report.Changes = lens.ComputeDiff(r.snapshot, report.Graph)
	report.Duration = time.Since(start)

	r.snapshot = lens.CreateSnapshot(report.Graph)
	r.latest = report
	if r.publisher != nil {
		r.publisher.SetReport(report)
	}
	r.publish(StateReady, "Resolution complete", totalSteps)

	r.logger.Info("Resolution complete",
		"reason", reason,
		"entities", report.Graph.Entities.Len(),
		"relationships", report.Stats.Total,
		"unresolved", report.Stats.Unresolved,
		"durationMs", report.Duration.Milliseconds())
	if !report.Changes.FullGraph {
		r.logger.Info("Graph changes",
			"addedEntities", len(report.Changes.AddedEntities),
			"removedEntities", len(report.Changes.RemovedEntities),
			"addedRelationships", len(report.Changes.AddedRelationships),
			"removedRelationships", len(report.Changes.RemovedRelationships),
			"reclassified", len(report.Changes.Reclassified))
	}

	return report, nil
}

// ProgressFunc is notified as a resolution advances
type ProgressFunc func(state, message string, step int)

// Resolve runs collection, classification and finalization over loaded facts.
// progress may be nil.
func Resolve(docs []facts.Document, m *manifest.Manifest, modules modresolve.Resolver, policy collect.Policy, progress ProgressFunc) (*Report, error) {
	if progress == nil {
		progress = func(string, string, int) {}
	}

	progress(StateCollecting, "Collecting entities...", 2)
	collector := collect.New(policy)
	for _, doc := range docs {
		if err := collector.Add(collect.FileEntities{FilePath: doc.File, Entities: doc.Entities}); err != nil {
			return nil, fmt.Errorf("entity collection failed: %w", err)
		}
	}
	entities := collector.Entities()

	progress(StateClassifying, "Classifying relationships...", 3)
	engine := classify.NewEngine(entities, collector.Origins(), imports.NewClassifier(m, modules))

	passes := make([][]model.Relationship, 0, len(docs)+1)
	explicit := make([][]model.RawRelationship, 0, len(docs))
	for _, doc := range docs {
		passes = append(passes, engine.Classify(doc.Relationships))
		explicit = append(explicit, doc.Relationships)
	}
	derived := classify.DropCovered(classify.DeriveRelationships(entities), explicit...)
	passes = append(passes, engine.Classify(derived))

	progress(StateFinalizing, "Finalizing graph...", 4)
	g := model.NewGraph()
	g.Entities = entities
	g.Relationships = classify.Finalize(passes...)

	return newReport(g, engine, collector), nil
}

func (r *Runner) publish(state, message string, step int) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishStatus(state, message, step, totalSteps); err != nil {
		r.logger.Debug("Failed to publish status", "state", state, "error", err)
	}
}

func (r *Runner) fail(err error) error {
	r.logger.Error("Resolution failed", "error", err)
	r.publish(StateError, err.Error(), totalSteps)
	return err
}
