package analysis

import (
	"path"
	"strings"

	"github.com/ritzau/ng-graph/pkg/graph"
	"github.com/ritzau/ng-graph/pkg/model"
)

// CrossFeatureDep represents an entity dependency that crosses feature folder boundaries
type CrossFeatureDep struct {
	Source        string                   `json:"source"`        // e.g., "component:src/app/orders/list.component.ts:ListComponent"
	Target        string                   `json:"target"`        // e.g., "service:src/app/users/user.service.ts:UserService"
	SourceFeature string                   `json:"sourceFeature"` // e.g., "orders"
	TargetFeature string                   `json:"targetFeature"` // e.g., "users"
	Types         []model.RelationshipType `json:"types"`
}

// FindCrossFeatureDeps identifies entity dependencies between different feature folders
func FindCrossFeatureDeps(entities *model.EntityMap, eg *graph.EntityGraph) []CrossFeatureDep {
	crossDeps := []CrossFeatureDep{}

	for _, edge := range eg.Edges() {
		source, ok := entities.Get(edge.Source)
		if !ok {
			continue
		}
		target, ok := entities.Get(edge.Target)
		if !ok {
			continue
		}

		sourceFeature := fileToFeature(source.Location.FilePath)
		targetFeature := fileToFeature(target.Location.FilePath)

		if sourceFeature != targetFeature {
			crossDeps = append(crossDeps, CrossFeatureDep{
				Source:        edge.Source,
				Target:        edge.Target,
				SourceFeature: sourceFeature,
				TargetFeature: targetFeature,
				Types:         edge.Types,
			})
		}
	}

	return crossDeps
}

// fileToFeature returns the feature folder of a source file
// e.g., "src/app/orders/list.component.ts" -> "orders"
// e.g., "projects/admin/src/app/users/user.service.ts" -> "users"
// e.g., "src/app/app.component.ts" -> "app"
// e.g., "libs/ui/button.ts" -> "libs"
func fileToFeature(filePath string) string {
	dir := path.Dir(strings.TrimPrefix(filePath, "./"))
	if dir == "." || dir == "/" {
		return ""
	}

	parts := strings.Split(dir, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "src" && parts[i+1] == "app" {
			if i+2 < len(parts) {
				return parts[i+2]
			}
			return "app"
		}
	}

	return parts[0]
}
