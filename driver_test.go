package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goguard/bridgelower/irfb"
)

const boxUnitJSON = `{
  "name": "box",
  "classes": [
    {"name": "Box", "kind": "class", "methods": [
      {"id": "Box.get", "name": "get", "dispatch": true, "return": "ref",
       "modality": "open", "overridable": true, "kind": "declared"}]},
    {"name": "IntBox", "kind": "class", "supers": ["Box"], "methods": [
      {"id": "IntBox.get", "name": "get", "dispatch": true, "return": "i32",
       "modality": "final", "kind": "declared", "overrides": ["Box.get"]}]}
  ]
}`

// brokenUnitJSON has a fake override with no implementation behind it.
const brokenUnitJSON = `{
  "name": "broken",
  "classes": [
    {"name": "I", "kind": "interface", "methods": [
      {"id": "I.f", "name": "f", "dispatch": true, "return": "unit",
       "modality": "abstract", "overridable": true, "kind": "declared"}]},
    {"name": "C", "kind": "class", "contributed": [
      {"id": "C.f", "name": "f", "dispatch": true, "return": "unit",
       "modality": "final", "kind": "fake_override", "overrides": ["I.f"]}]},
    {"name": "Main", "kind": "class", "methods": [
      {"id": "Main.use", "name": "use", "return": "unit", "modality": "final", "kind": "declared",
       "body": {"kind": "block", "stmts": [
         {"kind": "call", "callee": "C.f", "dispatch": {"kind": "get", "name": "c"}}]}}]}
  ]
}`

// unboundTypeArgUnitJSON calls a generic fake override without binding
// its type parameter.
const unboundTypeArgUnitJSON = `{
  "name": "unbound",
  "classes": [
    {"name": "Box", "kind": "class", "methods": [
      {"id": "Box.put", "name": "put", "dispatch": true, "type_params": ["U"],
       "params": [{"name": "x", "repr": "ref"}], "return": "unit",
       "modality": "open", "overridable": true, "kind": "declared"}]},
    {"name": "IntBox", "kind": "class", "supers": ["Box"], "contributed": [
      {"id": "IntBox.put", "name": "put", "dispatch": true, "type_params": ["V"],
       "params": [{"name": "x", "repr": "i32"}], "return": "unit",
       "modality": "open", "overridable": true, "kind": "fake_override", "overrides": ["Box.put"]}]},
    {"name": "Main", "kind": "class", "methods": [
      {"id": "Main.use", "name": "use", "return": "unit", "modality": "final", "kind": "declared",
       "body": {"kind": "block", "stmts": [
         {"kind": "call", "callee": "IntBox.put", "super": "IntBox", "dispatch": {"kind": "get", "name": "b"},
          "args": [{"kind": "const", "value": "1", "repr": "i32"}]}]}}]}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLowerJSON(t *testing.T) {
	result, err := LowerJSON(context.Background(), []byte(boxUnitJSON), DefaultConfig(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, Version, result.Version)
	assert.Equal(t, 1, result.Stats.BridgesAdded)
	assert.True(t, result.Unit.Class("IntBox").HasMember("IntBox.get$bridgeO"))
}

func TestLowerJSONInvalid(t *testing.T) {
	_, err := LowerJSON(context.Background(), []byte(`{"classes": [`), DefaultConfig(), discardLogger())
	assert.Error(t, err)
}

func TestEncodeFormats(t *testing.T) {
	result, err := LowerJSON(context.Background(), []byte(boxUnitJSON), DefaultConfig(), discardLogger())
	require.NoError(t, err)

	fb, err := Encode(result, FormatFlatBuffers)
	require.NoError(t, err)
	assert.Equal(t, "box", string(irfb.GetRootAsUnit(fb, 0).Name()))

	js, err := Encode(result, FormatJSON)
	require.NoError(t, err)
	var decoded struct {
		Stats struct {
			BridgesAdded int `json:"bridges_added"`
		} `json:"stats"`
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(js, &decoded))
	assert.Equal(t, 1, decoded.Stats.BridgesAdded)
	assert.Equal(t, Version, decoded.Version)

	text, err := Encode(result, FormatText)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "unit box\n"))
	assert.Contains(t, string(text), "# classes=2 bridges=1 rewritten=0 virtual=0\n")

	_, err = Encode(result, "xml")
	assert.Error(t, err)
}

func TestLowerWithCacheInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "unit.json")
	require.NoError(t, os.WriteFile(input, []byte(boxUnitJSON), 0644))

	cfg := DefaultConfig()
	cfg.Output.Format = FormatText
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	src := Source{InputPath: input}

	first, err := LowerWithCache(context.Background(), src, cfg, discardLogger())
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.Cache.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "one payload and one meta file")

	second, err := LowerWithCache(context.Background(), src, cfg, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cache := &Cache{Dir: cfg.Cache.Dir}
	cached, ok := cache.Get(FingerprintInput([]byte(boxUnitJSON), FormatText))
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestLowerWithCacheDisabled(t *testing.T) {
	input := filepath.Join(t.TempDir(), "unit.json")
	require.NoError(t, os.WriteFile(input, []byte(boxUnitJSON), 0644))

	cfg := DefaultConfig()
	cfg.Output.Format = FormatJSON
	out, err := LowerWithCache(context.Background(), Source{InputPath: input}, cfg, discardLogger())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"IntBox.get$bridgeO"`)
}

func TestLowerWithCacheErrors(t *testing.T) {
	cfg := DefaultConfig()
	_, err := LowerWithCache(context.Background(), Source{InputPath: filepath.Join(t.TempDir(), "absent.json")}, cfg, discardLogger())
	assert.ErrorContains(t, err, "reading input")

	input := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(input, []byte(brokenUnitJSON), 0644))
	cfg.Cache.Dir = t.TempDir()
	_, err = LowerWithCache(context.Background(), Source{InputPath: input}, cfg, discardLogger())
	require.Error(t, err)

	entries, _ := os.ReadDir(cfg.Cache.Dir)
	assert.Empty(t, entries, "failed lowerings are not cached")
}

func TestSourceDescribe(t *testing.T) {
	assert.Equal(t, []string{"unit.json"}, Source{InputPath: "unit.json"}.describe())
	assert.Equal(t, []string{".", "./...", "./cmd"}, Source{Dir: ".", Patterns: []string{"./...", "./cmd"}}.describe())
}
