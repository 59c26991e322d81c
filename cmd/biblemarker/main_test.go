package main

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/biblemarker/internal/conductor"
	"github.com/kittclouds/biblemarker/internal/snapshot"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

const genesis = "In the beginning God created the heavens and the earth."

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func renderJSON(t *testing.T, db string) conductor.Rendered {
	t.Helper()
	var r conductor.Rendered
	out := run(t, "render", "--db", db, "--ref", "Gen 1:1", "--text", genesis, "--json")
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	return r
}

func TestMarkRenderDelete(t *testing.T) {
	db := filepath.Join(t.TempDir(), "marks.db")

	out := run(t, "mark", "--db", db, "--ref", "Gen 1:1", "--text", genesis,
		"--selected", "God", "--preceding", "In the beginning ", "--color", "#ffeb3b")
	var created map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, float64(3), created["startWordIndex"])

	r := renderJSON(t, db)
	require.Len(t, r.Segments, 3)
	assert.Equal(t, "God", r.Segments[1].Text)
	require.Len(t, r.Segments[1].Annotations, 1)

	html := run(t, "render", "--db", db, "--ref", "Gen 1:1", "--text", genesis)
	assert.Contains(t, html, `class="annotation"`)
	assert.Contains(t, html, "background-color: #ffeb3b")

	run(t, "delete", "--db", db, id)
	r = renderJSON(t, db)
	assert.Len(t, r.Segments, 1)
}

func TestResolvePrintsCoordinates(t *testing.T) {
	out := run(t, "resolve", "--ref", "Gen 1:1", "--text", genesis, "--selected", "the earth.")
	assert.Equal(t, "words 8-9 chars 45-55 \"the earth.\"\n", out)
}

func TestPresetsAddListRender(t *testing.T) {
	db := filepath.Join(t.TempDir(), "marks.db")

	run(t, "presets", "add", "--db", db, "--id", "deity", "--word", "God", "--symbol", "crown")
	list := run(t, "presets", "list", "--db", db)
	assert.Contains(t, list, "deity")
	assert.Contains(t, list, "crown")

	html := run(t, "render", "--db", db, "--ref", "Gen 1:1", "--text", genesis, "--glyph", "crown=+")
	assert.Contains(t, html, `data-symbol="crown"`)

	run(t, "presets", "remove", "--db", db, "deity")
	assert.Contains(t, run(t, "presets", "list", "--db", db), "No presets.")
}

func TestExportImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "dst.db")
	folder := filepath.Join(dir, "sync")

	run(t, "mark", "--db", src, "--ref", "Gen 1:1", "--text", genesis, "--selected", "heavens", "--type", "underline")

	var stats snapshot.Stats
	require.NoError(t, json.Unmarshal([]byte(run(t, "export", "--db", src, folder)), &stats))
	assert.Equal(t, 1, stats.TextAnnotations)
	assert.FileExists(t, filepath.Join(folder, snapshot.DefaultFile))

	run(t, "import", "--db", dst, folder)
	r := renderJSON(t, dst)
	require.Len(t, r.Segments, 3)
	assert.Equal(t, "heavens", r.Segments[1].Text)
}

func TestMergePresets(t *testing.T) {
	stored := []keyword.Preset{{ID: "a", Word: "one"}, {ID: "b", Word: "two"}}
	fromFile := []keyword.Preset{{ID: "b", Word: "deux"}, {ID: "c", Word: "three"}}

	got := mergePresets(stored, fromFile)
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Word)
	assert.Equal(t, "deux", got[1].Word)
	assert.Equal(t, "c", got[2].ID)
}
