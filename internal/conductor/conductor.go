// Package conductor wires persistence, keyword presets and the annotation
// engine into the render and selection pipelines a host calls.
package conductor

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/biblemarker/internal/cache"
	"github.com/kittclouds/biblemarker/internal/logging"
	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
	"github.com/kittclouds/biblemarker/pkg/merger"
	"github.com/kittclouds/biblemarker/pkg/ranges"
	"github.com/kittclouds/biblemarker/pkg/render"
	"github.com/kittclouds/biblemarker/pkg/segment"
	"github.com/kittclouds/biblemarker/pkg/selection"
	"github.com/kittclouds/biblemarker/pkg/words"
)

var (
	// ErrUnresolvedSelection means the selected words do not occur in the
	// verse; no annotation is created.
	ErrUnresolvedSelection = errors.New("selection does not match the verse text")

	// ErrCrossVerseSelection means the selection spans verses and has no
	// word coordinates.
	ErrCrossVerseSelection = errors.New("selection spans more than one verse")
)

// DefaultCollection owns annotations created without an explicit collection.
const DefaultCollection = "default"

// Verse is one verse's reference and canonical plain text.
type Verse struct {
	Ref  annotation.VerseRef `json:"ref"`
	Text string              `json:"text"`
}

// Capture is the plain-data selection from the host surface.
type Capture struct {
	Selected   string `json:"selected"`
	Preceding  string `json:"preceding"`
	CrossVerse bool   `json:"crossVerse,omitempty"`
}

// Mark describes the annotation to create for a selection. A non-empty
// Symbol creates a symbol annotation; otherwise Kind styles the text.
type Mark struct {
	CollectionID string                    `json:"collectionId,omitempty"`
	Kind         annotation.StyleKind      `json:"type,omitempty"`
	Color        string                    `json:"color,omitempty"`
	Underline    annotation.UnderlineStyle `json:"underlineStyle,omitempty"`
	Symbol       string                    `json:"symbol,omitempty"`
	Position     annotation.SymbolPosition `json:"position,omitempty"`
}

// Rendered is everything a host needs to paint one verse.
type Rendered struct {
	Ref         annotation.VerseRef      `json:"ref"`
	Segments    []segment.TextSegment    `json:"segments"`
	Decorations annotation.Decorations   `json:"decorations"`
	Headings    []*store.Heading         `json:"headings,omitempty"`
	Notes       []*store.Note            `json:"notes,omitempty"`
	Ranges      []ranges.AnnotationRange `json:"-"`
	Merge       merger.MergeResult       `json:"-"`
	CacheHit    bool                     `json:"cacheHit"`
}

// Conductor runs the pipelines against one store.
type Conductor struct {
	store       store.Storer
	cache       *cache.VirtualCache
	translation string

	now   func() int64
	newID func() string
}

// New creates a conductor. translation is part of the virtual cache key.
func New(st store.Storer, c *cache.VirtualCache, translation string) *Conductor {
	return &Conductor{
		store:       st,
		cache:       c,
		translation: translation,
		now:         func() int64 { return time.Now().UnixMilli() },
		newID:       func() string { return uuid.New().String() },
	}
}

// Store returns the underlying store.
func (c *Conductor) Store() store.Storer {
	return c.store
}

// ============================================================================
// Render
// ============================================================================

// RenderVerse loads persisted annotations for v, merges them with the
// virtual annotations of presets and cuts the verse into segments.
func (c *Conductor) RenderVerse(v Verse, presets []keyword.Preset) (*Rendered, error) {
	persisted, symbols, err := c.persisted(v.Ref)
	if err != nil {
		return nil, err
	}

	virtual, hit, err := c.cache.Virtual(v.Ref, v.Text, c.translation, presets)
	if err != nil {
		return nil, fmt.Errorf("keyword presets: %w", err)
	}
	stats := c.cache.Stats()
	logging.Debug("virtual_annotations", "ref", v.Ref.String(), "cache_hit", hit, "count", len(virtual),
		"cache_hits", stats.Hits, "cache_misses", stats.Misses, "cache_len", stats.Len)

	c.logClamped(v, persisted)

	merged := merger.MergeWithStats(v.Text, persisted, virtual)
	rs := ranges.Build(v.Text, v.Ref, merged.Annotations)
	segs := segment.Segment(v.Text, rs)

	out := &Rendered{
		Ref:         v.Ref,
		Segments:    segs,
		Decorations: annotation.VerseDecorations(symbols, v.Ref),
		Ranges:      rs,
		Merge:       merged,
		CacheHit:    hit,
	}

	if out.Notes, err = c.store.ListNotes(v.Ref); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	headings, err := c.store.ListHeadings(v.Ref.Book, v.Ref.Chapter)
	if err != nil {
		return nil, fmt.Errorf("list headings: %w", err)
	}
	for _, h := range headings {
		if h.Ref == v.Ref {
			out.Headings = append(out.Headings, h)
		}
	}

	logging.VerseRendered(v.Ref.String(), len(segs), merged.PersistedKept, merged.VirtualKept)
	return out, nil
}

// RenderHTML renders v and writes its markup with r.
func (c *Conductor) RenderHTML(w io.Writer, r *render.Renderer, v Verse, presets []keyword.Preset) error {
	out, err := c.RenderVerse(v, presets)
	if err != nil {
		return err
	}
	return r.Render(w, out.Segments, out.Decorations)
}

// persisted returns the stored annotations for ref as one list, plus the
// symbol annotations on their own for verse-level decorations.
func (c *Conductor) persisted(ref annotation.VerseRef) ([]annotation.Annotation, []*annotation.SymbolAnnotation, error) {
	texts, err := c.store.ListTextAnnotations(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("list text annotations: %w", err)
	}
	symbols, err := c.store.ListSymbolAnnotations(ref)
	if err != nil {
		return nil, nil, fmt.Errorf("list symbol annotations: %w", err)
	}

	all := make([]annotation.Annotation, 0, len(texts)+len(symbols))
	for _, t := range texts {
		all = append(all, t)
	}
	for _, s := range symbols {
		all = append(all, s)
	}
	return all, symbols, nil
}

func (c *Conductor) logClamped(v Verse, as []annotation.Annotation) {
	ws := words.Tokenize(v.Text)
	for _, a := range as {
		if !a.Verses().IsSingleVerse() {
			continue
		}
		if res, ok := annotation.Resolve(ws, v.Text, a.Coordinates()); ok && res.Clamped {
			logging.Debug("stale_annotation_clamped", "ref", v.Ref.String(), "id", a.AnnotationID(),
				"start", res.Span.Start, "end", res.Span.End)
		}
	}
}

// ============================================================================
// Selection
// ============================================================================

// ResolveSelection maps a captured selection to word indices, steering away
// from occurrences that already carry a persisted annotation.
func (c *Conductor) ResolveSelection(v Verse, capture Capture) (words.WordSpan, bool, error) {
	if capture.CrossVerse {
		return words.WordSpan{}, false, nil
	}
	existing, err := c.existingWords(v)
	if err != nil {
		return words.WordSpan{}, false, err
	}

	span, ok := selection.Resolve(selection.Request{
		Canonical: v.Text,
		Selected:  capture.Selected,
		Preceding: capture.Preceding,
		Existing:  existing,
	})
	if !ok {
		logging.SelectionUnresolved(v.Ref.String(), capture.Selected)
	}
	return span, ok, nil
}

// existingWords returns the words each persisted annotation occupies, read
// from the same resolution the renderer draws.
func (c *Conductor) existingWords(v Verse) ([]words.WordSpan, error) {
	as, _, err := c.persisted(v.Ref)
	if err != nil {
		return nil, err
	}

	ws := words.Tokenize(v.Text)
	var out []words.WordSpan
	for _, a := range as {
		if !a.Verses().IsSingleVerse() {
			continue
		}
		res, ok := annotation.Resolve(ws, v.Text, a.Coordinates())
		if !ok {
			continue
		}
		if span, ok := words.CharsToWordSpan(ws, res.Span); ok {
			out = append(out, span)
		}
	}
	return out, nil
}

// MarkSelection resolves the selection and persists a new annotation on the
// resolved words. Unresolved and cross-verse selections create nothing.
func (c *Conductor) MarkSelection(v Verse, capture Capture, m Mark) (annotation.Annotation, error) {
	if capture.CrossVerse {
		return nil, ErrCrossVerseSelection
	}
	span, ok, err := c.ResolveSelection(v, capture)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedSelection, capture.Selected)
	}
	chars, ok := words.WordIndicesToCharOffsets(v.Text, span.Start, span.End)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedSelection, capture.Selected)
	}

	loc := annotation.AtWords(span.Start, span.End).With(annotation.AtChars(chars.Start, chars.End))
	collection := m.CollectionID
	if collection == "" {
		collection = DefaultCollection
	}
	now := c.now()

	if m.Symbol != "" {
		pos := m.Position
		if pos == "" {
			pos = annotation.PositionCenter
		}
		s := &annotation.SymbolAnnotation{
			ID:           c.newID(),
			CollectionID: collection,
			Ref:          v.Ref,
			Symbol:       m.Symbol,
			Color:        m.Color,
			Position:     pos,
			Location:     loc,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := c.store.UpsertSymbolAnnotation(s); err != nil {
			return nil, err
		}
		return s, nil
	}

	kind := m.Kind
	if kind == "" {
		kind = annotation.StyleHighlight
	}
	t := &annotation.TextAnnotation{
		ID:           c.newID(),
		CollectionID: collection,
		Range:        annotation.Single(v.Ref),
		Location:     loc,
		Kind:         kind,
		Color:        m.Color,
		Underline:    m.Underline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.store.UpsertTextAnnotation(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a persisted annotation.
func (c *Conductor) Delete(id string) error {
	if err := c.store.DeleteAnnotation(id); err != nil {
		return fmt.Errorf("delete annotation %s: %w", id, err)
	}
	return nil
}

// ============================================================================
// Presets
// ============================================================================

// Presets returns the stored keyword presets.
func (c *Conductor) Presets() ([]keyword.Preset, error) {
	ps, err := c.store.ListPresets()
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	out := make([]keyword.Preset, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out, nil
}

// SavePreset validates and stores p. Cached virtual annotations are dropped
// since every entry was computed against the old preset set.
func (c *Conductor) SavePreset(p keyword.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := c.store.UpsertPreset(&p); err != nil {
		return fmt.Errorf("save preset %s: %w", p.ID, err)
	}
	c.cache.Purge()
	return nil
}

// DeletePreset removes a stored preset.
func (c *Conductor) DeletePreset(id string) error {
	if err := c.store.DeletePreset(id); err != nil {
		return fmt.Errorf("delete preset %s: %w", id, err)
	}
	c.cache.Purge()
	return nil
}

// RenderWithStoredPresets renders v against the stored preset set.
func (c *Conductor) RenderWithStoredPresets(v Verse) (*Rendered, error) {
	ps, err := c.Presets()
	if err != nil {
		return nil, err
	}
	return c.RenderVerse(v, ps)
}
