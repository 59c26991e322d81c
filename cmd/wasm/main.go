//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"syscall/js"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/kittclouds/biblemarker/internal/cache"
	"github.com/kittclouds/biblemarker/internal/conductor"
	"github.com/kittclouds/biblemarker/internal/logging"
	"github.com/kittclouds/biblemarker/internal/snapshot"
	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/keyword"
	"github.com/kittclouds/biblemarker/pkg/render"
)

// Version info
const Version = "0.1.0"

// Global state
var (
	pipeline *conductor.Conductor
	syncFS   hackpadfs.FS
	renderer = render.New(nil)
)

func main() {
	logging.InitLogger(logging.LevelInfo, logging.FormatText)
	println("[BibleMarker] WASM Ready v" + Version)

	js.Global().Set("BibleMarker", js.ValueOf(map[string]interface{}{
		"version":      js.FuncOf(getVersion),
		"initialize":   js.FuncOf(initialize),
		"render":       js.FuncOf(renderVerse),
		"resolve":      js.FuncOf(resolveSelection),
		"mark":         js.FuncOf(markSelection),
		"delete":       js.FuncOf(deleteAnnotation),
		"savePreset":   js.FuncOf(savePreset),
		"listPresets":  js.FuncOf(listPresets),
		"removePreset": js.FuncOf(removePreset),
		"save":         js.FuncOf(save),
	}))

	select {}
}

func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// initialize: [translation string, glyphsJSON string?]
// Opens the IndexedDB sync folder and loads the last saved snapshot into an
// in-memory store.
func initialize(this js.Value, args []js.Value) interface{} {
	translation := "KJV"
	if len(args) > 0 && args[0].String() != "" {
		translation = args[0].String()
	}
	if len(args) > 1 {
		var glyphs map[string]string
		if err := json.Unmarshal([]byte(args[1].String()), &glyphs); err != nil {
			return errorResult("invalid glyphs json: " + err.Error())
		}
		renderer = render.New(glyphs)
	}

	var err error
	syncFS, err = indexeddb.NewFS(context.Background(), "biblemarker", indexeddb.Options{})
	if err != nil {
		return errorResult("failed to create idb fs: " + err.Error())
	}

	st := store.NewMemStore()
	if _, err := snapshot.Import(syncFS, snapshot.DefaultFile, st); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errorResult("failed to load snapshot: " + err.Error())
	}

	vc, err := cache.New(256)
	if err != nil {
		return errorResult(err.Error())
	}
	pipeline = conductor.New(st, vc, translation)
	return successResult("initialized")
}

// renderVerse: [verseJSON string]
// Returns the rendered segments plus the verse HTML.
func renderVerse(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: verseJSON")
	}
	if pipeline == nil {
		return errorResult("not initialized")
	}
	var v conductor.Verse
	if err := json.Unmarshal([]byte(args[0].String()), &v); err != nil {
		return errorResult("verse json: " + err.Error())
	}

	out, err := pipeline.RenderWithStoredPresets(v)
	if err != nil {
		return errorResult(err.Error())
	}
	markup, err := renderer.String(out.Segments, out.Decorations)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(map[string]interface{}{
		"rendered": out,
		"html":     markup,
	})
}

// resolveSelection: [verseJSON string, captureJSON string]
func resolveSelection(this js.Value, args []js.Value) interface{} {
	v, capture, errRes := verseAndCapture(args)
	if errRes != nil {
		return errRes
	}
	span, ok, err := pipeline.ResolveSelection(v, capture)
	if err != nil {
		return errorResult(err.Error())
	}
	if !ok {
		return errorResult(conductor.ErrUnresolvedSelection.Error())
	}
	return jsonResult(span)
}

// markSelection: [verseJSON string, captureJSON string, markJSON string]
func markSelection(this js.Value, args []js.Value) interface{} {
	v, capture, errRes := verseAndCapture(args)
	if errRes != nil {
		return errRes
	}
	var m conductor.Mark
	if len(args) > 2 {
		if err := json.Unmarshal([]byte(args[2].String()), &m); err != nil {
			return errorResult("mark json: " + err.Error())
		}
	}
	a, err := pipeline.MarkSelection(v, capture, m)
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(a)
}

func verseAndCapture(args []js.Value) (conductor.Verse, conductor.Capture, interface{}) {
	var v conductor.Verse
	var c conductor.Capture
	if len(args) < 2 {
		return v, c, errorResult("requires 2+ args: verseJSON, captureJSON")
	}
	if pipeline == nil {
		return v, c, errorResult("not initialized")
	}
	if err := json.Unmarshal([]byte(args[0].String()), &v); err != nil {
		return v, c, errorResult("verse json: " + err.Error())
	}
	if err := json.Unmarshal([]byte(args[1].String()), &c); err != nil {
		return v, c, errorResult("capture json: " + err.Error())
	}
	return v, c, nil
}

// deleteAnnotation: [id string]
func deleteAnnotation(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if pipeline == nil {
		return errorResult("not initialized")
	}
	if err := pipeline.Delete(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("deleted")
}

// savePreset: [presetJSON string]
func savePreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: presetJSON")
	}
	if pipeline == nil {
		return errorResult("not initialized")
	}
	var p keyword.Preset
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return errorResult("preset json: " + err.Error())
	}
	if err := pipeline.SavePreset(p); err != nil {
		return errorResult(err.Error())
	}
	return successResult("saved " + p.ID)
}

func listPresets(this js.Value, args []js.Value) interface{} {
	if pipeline == nil {
		return errorResult("not initialized")
	}
	ps, err := pipeline.Presets()
	if err != nil {
		return errorResult(err.Error())
	}
	return jsonResult(ps)
}

// removePreset: [id string]
func removePreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: id")
	}
	if pipeline == nil {
		return errorResult("not initialized")
	}
	if err := pipeline.DeletePreset(args[0].String()); err != nil {
		return errorResult(err.Error())
	}
	return successResult("removed")
}

// save writes the in-memory store to IndexedDB.
func save(this js.Value, args []js.Value) interface{} {
	if pipeline == nil || syncFS == nil {
		return errorResult("not initialized")
	}
	stats, err := snapshot.Export(syncFS, snapshot.DefaultFile, pipeline.Store())
	if err != nil {
		return errorResult("save failed: " + err.Error())
	}
	return jsonResult(stats)
}

// Helper: Create error result
func errorResult(msg string) interface{} {
	logging.Error("call_failed", "error", msg)
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

func jsonResult(v interface{}) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult("encode result: " + err.Error())
	}
	return string(jsonBytes)
}
