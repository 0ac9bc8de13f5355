package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ng-graph/pkg/model"
)

func TestNewEntityGraph(t *testing.T) {
	eg := NewEntityGraph()
	require.NotNil(t, eg)
	assert.Empty(t, eg.Nodes())
}

func TestAddEntity(t *testing.T) {
	eg := NewEntityGraph()

	eg.AddEntity("service:src/app/api.service.ts:ApiService", model.EntityService)
	eg.AddEntity("service:src/app/api.service.ts:ApiService", model.EntityService)

	assert.Len(t, eg.Nodes(), 1)

	node, exists := eg.GetNode("service:src/app/api.service.ts:ApiService")
	require.True(t, exists, "entity not found in graph")
	assert.Equal(t, model.EntityService, node.Type)

	assert.Same(t, node, eg.GetNodeByID(0))
	assert.Nil(t, eg.GetNodeByID(7))
}

func TestAddDependency(t *testing.T) {
	eg := NewEntityGraph()

	eg.AddDependency("component:a.ts:A", "service:b.ts:B", model.RelInjects)
	eg.AddDependency("component:a.ts:A", "service:b.ts:B", model.RelProvides)
	eg.AddDependency("component:a.ts:A", "service:b.ts:B", model.RelInjects)
	eg.AddDependency("component:a.ts:A", "component:a.ts:A", model.RelUsesInTemplate)

	assert.Equal(t, []Edge{{
		Source: "component:a.ts:A",
		Target: "service:b.ts:B",
		Types:  []model.RelationshipType{model.RelInjects, model.RelProvides},
	}}, eg.Edges())
}

func TestDependenciesAndDependents(t *testing.T) {
	eg := NewEntityGraph()

	eg.AddEntity("component:app.ts:App", model.EntityComponent)
	eg.AddEntity("service:users.ts:Users", model.EntityService)
	eg.AddEntity("service:http.ts:Http", model.EntityService)

	eg.AddDependency("component:app.ts:App", "service:http.ts:Http", model.RelInjects)
	eg.AddDependency("component:app.ts:App", "service:users.ts:Users", model.RelInjects)
	eg.AddDependency("service:users.ts:Users", "service:http.ts:Http", model.RelInjects)

	assert.Equal(t, []string{"service:users.ts:Users", "service:http.ts:Http"},
		eg.GetDependencies("component:app.ts:App"))
	assert.Equal(t, []string{"component:app.ts:App", "service:users.ts:Users"},
		eg.GetDependents("service:http.ts:Http"))
	assert.Nil(t, eg.GetDependencies("missing"))
}

func TestBuildEntityGraph(t *testing.T) {
	g := model.NewGraph()
	for _, e := range []*model.Entity{
		{ID: "module:app.module.ts:AppModule", Type: model.EntityModule, Name: "AppModule"},
		{ID: "component:app.ts:App", Type: model.EntityComponent, Name: "App"},
		{ID: "service:users.ts:Users", Type: model.EntityService, Name: "Users"},
	} {
		g.Entities.Set(e)
	}

	internal := &model.Metadata{Classification: model.Internal, Resolved: true}
	g.Relationships = []model.Relationship{
		{Type: model.RelDeclares, Source: "module:app.module.ts:AppModule", Target: "component:app.ts:App", Metadata: internal},
		{Type: model.RelInjects, Source: "component:app.ts:App", Target: "service:users.ts:Users", Metadata: internal},
		{Type: model.RelImports, Source: "component:app.ts:App", Target: "external:@angular/core:Component",
			Metadata: &model.Metadata{Classification: model.External, Resolved: true}},
		{Type: model.RelUses, Source: "component:app.ts:App", Target: "internal-file:models.ts:User",
			Metadata: &model.Metadata{Classification: model.Internal}},
		{Type: model.RelInjects, Source: "component:app.ts:App", Target: "unresolved:Ghost",
			Metadata: &model.Metadata{Classification: model.Unresolved}},
	}

	eg := BuildEntityGraph(g)
	assert.Len(t, eg.Nodes(), 3)
	assert.Len(t, eg.Edges(), 2)

	edges := BuildEntityGraph(g, model.RelInjects).Edges()
	require.Len(t, edges, 1, "only the injects edge")
	assert.Equal(t, "service:users.ts:Users", edges[0].Target)
}
