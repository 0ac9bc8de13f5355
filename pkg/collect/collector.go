// Package collect merges per-file entity maps into one global, insertion-ordered
// entity map and enforces the entity id collision policy.
package collect

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ritzau/ng-graph/pkg/logging"
	"github.com/ritzau/ng-graph/pkg/model"
)

// ErrEntityCollision is wrapped by every CollisionError
var ErrEntityCollision = errors.New("entity id collision")

// Policy decides what happens when two files produce the same entity id
type Policy int

const (
	// Lenient keeps the first-seen entity and drops the later one
	Lenient Policy = iota
	// Strict aborts the run on the first collision
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

// FileEntities is the entity output of one per-file extraction pass
type FileEntities struct {
	FilePath string
	Entities []*model.Entity
}

// Collision records an entity id declared by two distinct files
type Collision struct {
	ID           string `json:"id"`
	ExistingFile string `json:"existingFile"`
	DroppedFile  string `json:"droppedFile"`
}

// CollisionError is returned in strict mode
type CollisionError struct {
	Collision
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("entity id %q declared in both %s and %s", e.ID, e.ExistingFile, e.DroppedFile)
}

func (e *CollisionError) Unwrap() error {
	return ErrEntityCollision
}

// Collector builds the global entity map and the id -> origin file side index
type Collector struct {
	policy     Policy
	entities   *model.EntityMap
	origins    map[string]string
	collisions []Collision
	logger     *slog.Logger
}

// New creates a collector with the given collision policy
func New(policy Policy) *Collector {
	return &Collector{
		policy:   policy,
		entities: model.NewEntityMap(),
		origins:  make(map[string]string),
		logger:   logging.New("collect"),
	}
}

// Add merges the entities of one file. Only strict-mode collisions return an error.
func (c *Collector) Add(file FileEntities) error {
	for _, entity := range file.Entities {
		if entity == nil || entity.ID == "" {
			c.logger.Warn("skipping entity without id", "file", file.FilePath)
			continue
		}

		existingFile, exists := c.origins[entity.ID]
		if exists && existingFile != file.FilePath {
			collision := Collision{
				ID:           entity.ID,
				ExistingFile: existingFile,
				DroppedFile:  file.FilePath,
			}
			if c.policy == Strict {
				return &CollisionError{Collision: collision}
			}
			c.collisions = append(c.collisions, collision)
			c.logger.Warn("entity id collision, keeping first",
				"id", entity.ID, "kept", existingFile, "dropped", file.FilePath)
			continue
		}

		// Same id from the same file is a re-entry: last write wins
		if exists {
			c.logger.Debug("overwriting entity from same file", "id", entity.ID, "file", file.FilePath)
		}
		c.entities.Set(entity)
		c.origins[entity.ID] = file.FilePath
	}
	return nil
}

// AddAll merges files in order, stopping at the first strict-mode collision
func (c *Collector) AddAll(files []FileEntities) error {
	for _, file := range files {
		if err := c.Add(file); err != nil {
			return err
		}
	}
	return nil
}

// Entities returns the merged entity map
func (c *Collector) Entities() *model.EntityMap {
	return c.entities
}

// Origins returns the entity id -> origin file index
func (c *Collector) Origins() map[string]string {
	return c.origins
}

// Collisions returns the collisions tolerated in lenient mode
func (c *Collector) Collisions() []Collision {
	return c.collisions
}
