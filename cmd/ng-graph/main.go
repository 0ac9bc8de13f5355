package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritzau/ng-graph/pkg/analysis"
	"github.com/ritzau/ng-graph/pkg/collect"
	"github.com/ritzau/ng-graph/pkg/config"
	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/output"
	"github.com/ritzau/ng-graph/pkg/watcher"
	"github.com/ritzau/ng-graph/pkg/web"
)

// Debounce settings for watch mode
const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, collect.ErrEntityCollision) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ng-graph",
		Short: "Resolve extracted Angular facts into a classified knowledge graph",
		Long: `ng-graph reads per-file fact documents (*.facts.json, *.facts.yaml),
resolves every relationship target to an entity, an external package or an
in-project file, and reports what stayed unresolved.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         run,
	}

	f := cmd.Flags()
	f.String("config", config.DefaultFile, "Path to the TOML configuration file")
	f.String("root", ".", "Project root used for module resolution")
	f.String("facts", "", "Directory searched for fact files (default: root)")
	f.String("manifest", "", "Path to package.json (default: <root>/package.json)")
	f.Bool("strict", false, "Abort on entity id collisions instead of keeping the first")
	f.StringSlice("extensions", nil, "File extensions probed for extensionless imports")
	f.StringToString("aliases", nil, "Path aliases, e.g. @app/*=src/app/*")
	f.StringSlice("external-patterns", nil, "Globs of import paths that are always external")
	f.Int("cache-size", 0, "Module resolution cache size (0: default, negative: disabled)")
	f.Bool("watch", false, "Re-resolve when fact files, the manifest or the config change")
	f.Bool("serve", false, "Serve the graph over HTTP")
	f.Int("port", 8080, "Port for the HTTP server")
	f.String("format", "text", "Report format: text or json")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("json-logs", false, "Write logs as JSON")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	setupLogging(cfg)

	if cfg.Format != "text" && cfg.Format != "json" {
		return fmt.Errorf("unknown format %q", cfg.Format)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		server    *web.Server
		publisher analysis.Publisher
		serverErr = make(chan error, 1)
	)
	if cfg.Serve {
		server = web.NewServer()
		publisher = server
		go func() { serverErr <- server.Start(ctx, cfg.Port) }()
	}

	runner := analysis.NewRunner(options(cfg), publisher)

	report, err := runner.Run(ctx, "initial analysis")
	if err != nil {
		if !cfg.Serve && !cfg.Watch {
			return err
		}
		logging.Error("Initial resolution failed, waiting for changes", "error", err)
	} else if err := printReport(cmd, cfg, report); err != nil {
		return err
	}

	if !cfg.Serve && !cfg.Watch {
		return nil
	}

	rerun := func(reason string) {
		report, err := runner.Run(ctx, reason)
		if err != nil {
			return // Already logged and published by the runner
		}
		if cfg.Format == "text" {
			output.PrintReport(cmd.OutOrStdout(), cfg.Root, report)
		}
	}

	if server != nil {
		server.OnRefresh(rerun)
	}

	if cfg.Watch {
		if err := watch(ctx, cmd, cfg, runner, rerun); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		logging.Info("Shutting down")
		if server != nil {
			return <-serverErr
		}
		return nil
	case err := <-serverErr:
		return err
	}
}

// watch starts the file watcher and re-resolves on every debounced change
func watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, runner *analysis.Runner, rerun func(string)) error {
	fw, err := watcher.NewFileWatcher(watcher.Targets{
		FactsDir:     cfg.FactsDir(),
		ManifestPath: cfg.ManifestPath(),
		ConfigPath:   cfg.ConfigFile,
	})
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			change := watcher.AnalyzeChanges(event)
			if !change.Rerun {
				continue
			}
			if change.ReloadConfig {
				reloaded, err := config.Load(cmd.Flags())
				if err != nil {
					logging.Error("Ignoring invalid configuration", "path", cfg.ConfigFile, "error", err)
					continue
				}
				setupLogging(reloaded)
				runner.SetOptions(options(reloaded))
			}
			logging.Info("Change detected", "reason", change.Reason, "files", len(change.ChangedFiles))
			rerun(change.Reason)
		}
	}()

	return nil
}

func options(cfg *config.Config) analysis.Options {
	policy := collect.Lenient
	if cfg.Strict {
		policy = collect.Strict
	}
	return analysis.Options{
		Root:             cfg.Root,
		FactsDir:         cfg.FactsDir(),
		ManifestPath:     cfg.ManifestPath(),
		Policy:           policy,
		Extensions:       cfg.Extensions,
		Aliases:          cfg.Aliases,
		ExternalPatterns: cfg.ExternalPatterns,
		CacheSize:        cfg.CacheSize,
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.JSONLogs {
		logging.SetJSONOutput(os.Stderr)
	}
	logging.SetLevel(logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt))
}

func printReport(cmd *cobra.Command, cfg *config.Config, report *analysis.Report) error {
	if cfg.Format == "json" {
		return output.WriteJSON(cmd.OutOrStdout(), report)
	}
	output.PrintReport(cmd.OutOrStdout(), cfg.Root, report)
	return nil
}
