package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/ng-graph/pkg/collect"
	"github.com/ritzau/ng-graph/pkg/model"
)

const factFile = `{
  "file": "src/app/app.component.ts",
  "entities": [
    {"id": "component:src/app/app.component.ts:AppComponent", "type": "component", "name": "AppComponent", "selector": "app-root"}
  ],
  "relationships": [
    {"type": "injects", "source": "component:src/app/app.component.ts:AppComponent", "target": "HttpClient",
     "metadata": {"importPath": "@angular/common/http"}}
  ]
}`

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "facts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "facts", "app.component.ts.facts.json"), []byte(factFile), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(`{"dependencies": {"@angular/common": "^17.0.0"}}`), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJSONOutput(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "--root", dir, "--facts", filepath.Join(dir, "facts"), "--format", "json")
	require.NoError(t, err)

	var g struct {
		Entities      []model.Entity       `json:"entities"`
		Relationships []model.Relationship `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	require.Len(t, g.Entities, 1)
	require.Len(t, g.Relationships, 1)

	rel := g.Relationships[0]
	assert.Equal(t, "external:@angular/common:HttpClient", rel.Target)
	assert.Equal(t, model.External, rel.Metadata.Classification)
	assert.Equal(t, "^17.0.0", rel.Metadata.Version)
}

func TestTextOutput(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, "--root", dir, "--facts", filepath.Join(dir, "facts"))
	require.NoError(t, err)
	assert.Contains(t, out, "Entities: 1")
	assert.Contains(t, out, "Summary: 100% resolved (1/1 relationships)")
}

func TestStrictCollisionFails(t *testing.T) {
	dir := workspace(t)
	dup := `{"file": "src/app/zz.ts", "entities": [{"id": "component:src/app/app.component.ts:AppComponent", "type": "component", "name": "AppComponent"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "facts", "zz.ts.facts.json"), []byte(dup), 0o644))

	_, err := execute(t, "--root", dir, "--facts", filepath.Join(dir, "facts"), "--strict")
	require.Error(t, err)
	assert.True(t, errors.Is(err, collect.ErrEntityCollision))

	_, err = execute(t, "--root", dir, "--facts", filepath.Join(dir, "facts"))
	assert.NoError(t, err, "lenient mode keeps the first entity")
}

func TestUnknownFormat(t *testing.T) {
	dir := workspace(t)
	_, err := execute(t, "--root", dir, "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}
