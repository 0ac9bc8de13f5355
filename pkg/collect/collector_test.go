package collect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ng-graph/pkg/model"
)

func entity(id, name, file string) *model.Entity {
	return &model.Entity{
		ID:       id,
		Type:     model.EntityComponent,
		Name:     name,
		Location: model.Location{FilePath: file},
	}
}

func TestCollectorMergesInOrder(t *testing.T) {
	c := New(Strict)

	err := c.AddAll([]FileEntities{
		{FilePath: "src/b.ts", Entities: []*model.Entity{entity("component:src/b.ts:B", "B", "src/b.ts")}},
		{FilePath: "src/a.ts", Entities: []*model.Entity{entity("component:src/a.ts:A", "A", "src/a.ts")}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"component:src/b.ts:B", "component:src/a.ts:A"}, c.Entities().IDs())
	assert.Equal(t, "src/a.ts", c.Origins()["component:src/a.ts:A"])
	assert.Empty(t, c.Collisions())
}

func TestCollectorLenientKeepsFirst(t *testing.T) {
	c := New(Lenient)

	first := entity("component:src/a.ts:Foo", "Foo", "src/a.ts")
	second := entity("component:src/a.ts:Foo", "Foo", "src/b.ts")

	require.NoError(t, c.Add(FileEntities{FilePath: "src/a.ts", Entities: []*model.Entity{first}}))
	require.NoError(t, c.Add(FileEntities{FilePath: "src/b.ts", Entities: []*model.Entity{second}}))

	assert.Equal(t, 1, c.Entities().Len())
	got, ok := c.Entities().Get("component:src/a.ts:Foo")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, "src/a.ts", c.Origins()["component:src/a.ts:Foo"])

	require.Len(t, c.Collisions(), 1)
	assert.Equal(t, Collision{
		ID:           "component:src/a.ts:Foo",
		ExistingFile: "src/a.ts",
		DroppedFile:  "src/b.ts",
	}, c.Collisions()[0])
}

func TestCollectorStrictFails(t *testing.T) {
	c := New(Strict)

	require.NoError(t, c.Add(FileEntities{
		FilePath: "src/a.ts",
		Entities: []*model.Entity{entity("component:src/a.ts:Foo", "Foo", "src/a.ts")},
	}))
	err := c.Add(FileEntities{
		FilePath: "src/b.ts",
		Entities: []*model.Entity{entity("component:src/a.ts:Foo", "Foo", "src/b.ts")},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEntityCollision))

	var collisionErr *CollisionError
	require.ErrorAs(t, err, &collisionErr)
	assert.Equal(t, "src/a.ts", collisionErr.ExistingFile)
	assert.Equal(t, "src/b.ts", collisionErr.DroppedFile)
	assert.Contains(t, err.Error(), "src/a.ts")
	assert.Contains(t, err.Error(), "src/b.ts")
}

func TestCollectorSameFileLastWriteWins(t *testing.T) {
	c := New(Strict)

	older := entity("directive:src/a.ts:Dir", "Dir", "src/a.ts")
	newer := entity("directive:src/a.ts:Dir", "Dir", "src/a.ts")
	newer.Selector = "[appDir]"

	require.NoError(t, c.Add(FileEntities{FilePath: "src/a.ts", Entities: []*model.Entity{older}}))
	require.NoError(t, c.Add(FileEntities{FilePath: "src/a.ts", Entities: []*model.Entity{newer}}))

	got, ok := c.Entities().Get("directive:src/a.ts:Dir")
	require.True(t, ok)
	assert.Equal(t, "[appDir]", got.Selector)
	assert.Equal(t, 1, c.Entities().Len())
}

func TestCollectorSkipsEntitiesWithoutID(t *testing.T) {
	c := New(Strict)

	require.NoError(t, c.Add(FileEntities{
		FilePath: "src/a.ts",
		Entities: []*model.Entity{nil, {Name: "NoID"}},
	}))
	assert.Equal(t, 0, c.Entities().Len())
}
