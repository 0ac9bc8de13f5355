// Package output renders resolution reports for the terminal.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/ng-graph/pkg/analysis"
)

// maxListed caps the entries printed per diagnostic section
const maxListed = 20

// PrintReport prints a colored summary of a resolution report
func PrintReport(w io.Writer, root string, report *analysis.Report) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	stats := report.Stats

	// Header
	bold.Fprintln(w, "ng-graph - Resolution Report")
	bold.Fprintln(w, "============================")
	fmt.Fprintf(w, "Project: %s\n", root)
	fmt.Fprintf(w, "Entities: %d\n", report.Graph.Entities.Len())
	fmt.Fprintf(w, "Relationships: %d (internal %d, external %d)\n", stats.Total, stats.Internal, stats.External)
	if stats.Unresolved == 0 {
		green.Fprintf(w, "Unresolved: 0\n")
	} else {
		yellow.Fprintf(w, "Unresolved: %d\n", stats.Unresolved)
	}
	fmt.Fprintln(w)

	if len(stats.UnresolvedNames) > 0 {
		red.Fprintln(w, "UNRESOLVED NAMES:")
		printList(w, yellow, stats.UnresolvedNames)
		fmt.Fprintln(w)
	}

	if len(report.Cycles) > 0 {
		red.Fprintf(w, "CYCLES (%d):\n", len(report.Cycles))
		for i, cycle := range report.Cycles {
			if i == maxListed {
				fmt.Fprintf(w, "  ... and %d more\n", len(report.Cycles)-maxListed)
				break
			}
			yellow.Fprintf(w, "  %s\n", strings.Join(cycle.Entities, " -> "))
		}
		fmt.Fprintln(w)
	}

	if len(report.CrossFeature) > 0 {
		cyan.Fprintf(w, "CROSS-FEATURE DEPENDENCIES (%d):\n", len(report.CrossFeature))
		for i, dep := range report.CrossFeature {
			if i == maxListed {
				fmt.Fprintf(w, "  ... and %d more\n", len(report.CrossFeature)-maxListed)
				break
			}
			fmt.Fprintf(w, "  %s -> %s: %s -> %s\n", dep.SourceFeature, dep.TargetFeature, dep.Source, dep.Target)
		}
		fmt.Fprintln(w)
	}

	if len(report.Ambiguities) > 0 {
		yellow.Fprintf(w, "AMBIGUOUS NAMES (%d):\n", len(report.Ambiguities))
		for i, a := range report.Ambiguities {
			if i == maxListed {
				fmt.Fprintf(w, "  ... and %d more\n", len(report.Ambiguities)-maxListed)
				break
			}
			fmt.Fprintf(w, "  %s", a.Name)
			if a.OriginFile != "" {
				fmt.Fprintf(w, " (from %s)", a.OriginFile)
			}
			fmt.Fprintf(w, ": chose %s of %d candidates\n", a.Chosen, len(a.Candidates))
		}
		fmt.Fprintln(w)
	}

	if len(report.Collisions) > 0 {
		red.Fprintf(w, "ENTITY ID COLLISIONS (%d):\n", len(report.Collisions))
		for _, c := range report.Collisions {
			fmt.Fprintf(w, "  %s\n", c.ID)
			cyan.Fprintf(w, "    Kept: %s\n", c.ExistingFile)
			cyan.Fprintf(w, "    Dropped: %s\n", c.DroppedFile)
		}
		fmt.Fprintln(w)
	}

	if len(report.Skipped) > 0 {
		yellow.Fprintf(w, "SKIPPED RELATIONSHIPS (%d):\n", len(report.Skipped))
		for i, s := range report.Skipped {
			if i == maxListed {
				fmt.Fprintf(w, "  ... and %d more\n", len(report.Skipped)-maxListed)
				break
			}
			fmt.Fprintf(w, "  %s [%s]: %s\n", s.Source, s.Type, s.Reason)
		}
		fmt.Fprintln(w)
	}

	// Only reruns have something to compare with
	if c := report.Changes; c != nil && !c.FullGraph {
		if c.Empty() {
			fmt.Fprintln(w, "CHANGES: none")
		} else {
			cyan.Fprintln(w, "CHANGES:")
			fmt.Fprintf(w, "  Entities: +%d -%d ~%d\n", len(c.AddedEntities), len(c.RemovedEntities), len(c.ModifiedEntities))
			fmt.Fprintf(w, "  Relationships: +%d -%d ~%d\n", len(c.AddedRelationships), len(c.RemovedRelationships), len(c.ModifiedRelationships))
			for i, r := range c.Reclassified {
				if i == maxListed {
					fmt.Fprintf(w, "  ... and %d more\n", len(c.Reclassified)-maxListed)
					break
				}
				fmt.Fprintf(w, "  %s [%s]: %s -> %s\n", r.Source, r.Type, r.Before, r.After)
			}
		}
		fmt.Fprintln(w)
	}

	// Summary with color based on the resolved share
	percentage := 100.0
	if stats.Total > 0 {
		percentage = float64(stats.Resolved) / float64(stats.Total) * 100.0
	}

	summaryColor := green
	if percentage < 100.0 {
		summaryColor = yellow
	}
	if percentage < 80.0 {
		summaryColor = red
	}

	summaryColor.Fprintf(w, "Summary: %.0f%% resolved (%d/%d relationships) in %s\n",
		percentage, stats.Resolved, stats.Total, report.Duration.Round(time.Millisecond))

	if stats.Unresolved == 0 && len(report.Cycles) == 0 {
		green.Fprintln(w, "✓ Every relationship resolved, no cycles")
	}
}

func printList(w io.Writer, c *color.Color, items []string) {
	for i, item := range items {
		if i == maxListed {
			fmt.Fprintf(w, "  ... and %d more\n", len(items)-maxListed)
			return
		}
		c.Fprintf(w, "  %s\n", item)
	}
}

// WriteJSON writes the resolved graph as indented JSON
func WriteJSON(w io.Writer, report *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report.Graph); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}
