// Package lens derives focused views of a resolved graph and the changes
// between two resolutions of it.
package lens

import (
	"github.com/ritzau/ng-graph/pkg/model"
)

// Unlimited disables the distance limit of a FocusConfig
const Unlimited = -1

// FocusConfig defines which part of a graph a view shows
type FocusConfig struct {
	Selected       []string                 `json:"selected"`    // Entity ids at distance 0
	MaxDistance    int                      `json:"maxDistance"` // Hops from the selection, Unlimited for all
	Types          []model.RelationshipType `json:"types,omitempty"`
	HideExternal   bool                     `json:"hideExternal,omitempty"`
	HideUnresolved bool                     `json:"hideUnresolved,omitempty"`
}

// View is the focused part of a graph
type View struct {
	Entities      []*model.Entity      `json:"entities"`
	Relationships []model.Relationship `json:"relationships"`
	Distances     map[string]int       `json:"distances"` // Entity id or placeholder target -> hops
}

// includes reports whether a relationship passes the config's filters
func (c FocusConfig) includes(r *model.Relationship) bool {
	if len(c.Types) > 0 {
		found := false
		for _, t := range c.Types {
			if r.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	switch r.Classification() {
	case model.External:
		return !c.HideExternal
	case model.Internal:
		return true
	}
	return !c.HideUnresolved
}
