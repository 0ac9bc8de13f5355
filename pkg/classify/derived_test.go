package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ritzau/ng-graph/pkg/model"
)

func TestDeriveRelationships(t *testing.T) {
	entities := model.NewEntityMap()
	entities.Set(&model.Entity{
		ID: "module:src/app/app.module.ts:AppModule", Type: model.EntityModule, Name: "AppModule",
		Declarations: []string{"AppComponent", ""},
		Imports:      []string{"BrowserModule"},
		Exports:      []string{"AppComponent"},
		Providers:    []string{"UserService"},
	})
	entities.Set(&model.Entity{
		ID: "component:src/app/a.component.ts:AComponent", Type: model.EntityComponent, Name: "AComponent",
		Imports:   []string{"NgIf"},
		Providers: []string{"AStore"},
	})
	entities.Set(&model.Entity{
		ID: "component:src/app/b.component.ts:BComponent", Type: model.EntityComponent, Name: "BComponent",
		Standalone: true,
		Imports:    []string{"AComponent"},
	})
	entities.Set(&model.Entity{
		ID: "service:src/app/user.service.ts:UserService", Type: model.EntityService, Name: "UserService",
		Providers: []string{"ignored"},
	})

	raw := DeriveRelationships(entities)

	type edge struct {
		source string
		t      model.RelationshipType
		target any
	}
	got := make([]edge, 0, len(raw))
	for _, r := range raw {
		got = append(got, edge{r.Source, r.Type, r.Target})
	}

	assert.Equal(t, []edge{
		{"module:src/app/app.module.ts:AppModule", model.RelDeclares, "AppComponent"},
		{"module:src/app/app.module.ts:AppModule", model.RelImports, "BrowserModule"},
		{"module:src/app/app.module.ts:AppModule", model.RelExports, "AppComponent"},
		{"module:src/app/app.module.ts:AppModule", model.RelProvides, "UserService"},
		{"component:src/app/a.component.ts:AComponent", model.RelProvides, "AStore"},
		{"component:src/app/b.component.ts:BComponent", model.RelImports, "AComponent"},
	}, got)
}

func TestDeriveRelationshipsEmpty(t *testing.T) {
	assert.Empty(t, DeriveRelationships(model.NewEntityMap()))
}

func TestDropCovered(t *testing.T) {
	const module = "module:src/app/app.module.ts:AppModule"
	derived := []model.RawRelationship{
		{Type: model.RelImports, Source: module, Target: "CommonModule"},
		{Type: model.RelImports, Source: module, Target: "SharedModule"},
		{Type: model.RelDeclares, Source: module, Target: "AppComponent"},
		{Type: model.RelProvides, Source: module, Target: "UserService"},
		{Type: model.RelExports, Source: module, Target: "SharedModule"},
	}
	explicit := []model.RawRelationship{
		{Type: model.RelImports, Source: module, Target: "CommonModule",
			Metadata: &model.Metadata{ImportPath: "@angular/common"}},
		{Type: model.RelDeclares, Source: module, Target: "component:src/app/app.component.ts:AppComponent"},
		{Type: model.RelProvides, Source: module, Target: "unresolved:Users",
			Metadata: &model.Metadata{OriginalName: "UserService"}},
		{Type: model.RelImports, Source: module, Target: "external:@shop/shared:SharedModule"},
		// other source
		{Type: model.RelExports, Source: "module:src/other.module.ts:OtherModule", Target: "SharedModule"},
	}

	kept := DropCovered(derived, explicit[:2], explicit[2:])

	assert.Equal(t, []model.RawRelationship{
		{Type: model.RelExports, Source: module, Target: "SharedModule"},
	}, kept)
	assert.Len(t, DropCovered(derived), len(derived))
}
