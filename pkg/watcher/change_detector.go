package watcher

import (
	"fmt"
	"path/filepath"
)

// ChangeAnalysis describes what changed and what has to happen before the next run
type ChangeAnalysis struct {
	ReloadConfig bool // Options derived from the config file must be rebuilt
	Rerun        bool
	Reason       string
	ChangedFiles []string
}

// AnalyzeChanges determines how to react to a debounced change event
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		Rerun:        true,
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeConfig:
		analysis.ReloadConfig = true
		analysis.Reason = "configuration changed"

	case ChangeTypeManifest:
		// External package versions come from the manifest
		analysis.Reason = "dependency manifest changed"

	case ChangeTypeFacts:
		if len(event.Paths) == 1 {
			analysis.Reason = fmt.Sprintf("fact file %s changed", filepath.Base(event.Paths[0]))
		} else {
			analysis.Reason = fmt.Sprintf("%d fact files changed", len(event.Paths))
		}

	default:
		analysis.Rerun = false
	}

	return analysis
}
