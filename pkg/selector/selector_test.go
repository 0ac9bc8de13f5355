package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ng-graph/pkg/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		selector string
		want     []Compound
	}{
		{"app-root", []Compound{{Element: "app-root"}}},
		{"[appHighlight]", []Compound{{Attributes: []string{"appHighlight"}}}},
		{"input[type=checkbox]", []Compound{{Element: "input", Attributes: []string{"type"}}}},
		{".btn.primary", []Compound{{Classes: []string{"btn", "primary"}}}},
		{
			"button[mat-button], a[mat-button]",
			[]Compound{
				{Element: "button", Attributes: []string{"mat-button"}},
				{Element: "a", Attributes: []string{"mat-button"}},
			},
		},
		{
			"[ngModel]:not([formControl]):not([formControlName])",
			[]Compound{{Attributes: []string{"ngModel"}}},
		},
		{"", nil},
		{" , ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.selector))
		})
	}
}

func testEntities() *model.EntityMap {
	m := model.NewEntityMap()
	for _, e := range []*model.Entity{
		{ID: "component:src/a/root.ts:RootComponent", Name: "RootComponent", Type: model.EntityComponent, Selector: "app-root"},
		{ID: "directive:src/a/shared.ts:SharedDirective", Name: "SharedDirective", Type: model.EntityDirective, Selector: "[appShared]"},
		{ID: "directive:src/b/shared.ts:SharedDirective", Name: "SharedDirective", Type: model.EntityDirective, Selector: "[appShared]"},
		{ID: "directive:src/a/btn.ts:ButtonDirective", Name: "ButtonDirective", Type: model.EntityDirective, Selector: "button[appBtn], .app-btn"},
		{ID: "pipe:src/a/money.pipe.ts:MoneyPipe", Name: "MoneyPipe", Type: model.EntityPipe, PipeName: "money"},
		{ID: "pipe:src/a/raw.pipe.ts:RawPipe", Name: "RawPipe", Type: model.EntityPipe},
		{ID: "service:src/a/api.ts:ApiService", Name: "ApiService", Type: model.EntityService},
	} {
		m.Set(e)
	}
	return m
}

func TestResolveElement(t *testing.T) {
	idx := BuildIndex(testEntities())

	matches := idx.Resolve("app-root")
	require.Len(t, matches, 1)
	assert.Equal(t, "component:src/a/root.ts:RootComponent", matches[0].EntityID)

	assert.Empty(t, idx.Resolve("app-missing"))
	assert.Empty(t, idx.Resolve("  "))
}

func TestResolveAttributeFanOut(t *testing.T) {
	idx := BuildIndex(testEntities())

	for _, text := range []string{"[appShared]", "appShared"} {
		matches := idx.Resolve(text)
		require.Len(t, matches, 2, text)
		assert.Equal(t, "directive:src/a/shared.ts:SharedDirective", matches[0].EntityID)
		assert.Equal(t, "directive:src/b/shared.ts:SharedDirective", matches[1].EntityID)
	}
}

func TestResolveCompoundSelector(t *testing.T) {
	idx := BuildIndex(testEntities())
	want := "directive:src/a/btn.ts:ButtonDirective"

	for _, text := range []string{"button", "[appBtn]", ".app-btn"} {
		matches := idx.Resolve(text)
		require.Len(t, matches, 1, text)
		assert.Equal(t, want, matches[0].EntityID, text)
	}

	// button is registered once even though it is also an attribute host
	assert.Equal(t, []string{"app-root", "button", ".app-btn"}, idx.ElementPatterns())
	assert.Equal(t, []string{"appShared", "appBtn"}, idx.AttributePatterns())
}

func TestResolveClass(t *testing.T) {
	idx := BuildIndex(testEntities())

	for _, text := range []string{"app-btn", ".app-btn", " app-btn "} {
		matches := idx.ResolveClass(text)
		require.Len(t, matches, 1, text)
		assert.Equal(t, "directive:src/a/btn.ts:ButtonDirective", matches[0].EntityID, text)
	}

	// a bare class name is not an element
	assert.Empty(t, idx.Resolve("app-btn"))
	assert.Empty(t, idx.ResolveClass("app-root"))
	assert.Empty(t, idx.ResolveClass(""))
}

func TestResolvePipe(t *testing.T) {
	idx := BuildIndex(testEntities())

	matches := idx.ResolvePipe("money")
	require.Len(t, matches, 1)
	assert.Equal(t, "MoneyPipe", matches[0].EntityName)

	// Pipes without an explicit name are registered under the class name
	require.Len(t, idx.ResolvePipe("RawPipe"), 1)
	assert.Empty(t, idx.ResolvePipe("MoneyPipe"))
}

func TestPatternMapDeduplicates(t *testing.T) {
	p := newPatternMap()
	m := Match{EntityID: "directive:a.ts:X"}
	p.add("x", m)
	p.add("x", m)
	assert.Len(t, p.get("x"), 1)
	assert.Equal(t, []string{"x"}, p.keys)
}
