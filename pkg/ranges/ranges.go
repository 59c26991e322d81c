// Package ranges groups the merged annotations of one verse into char
// ranges, attaching symbols to the text ranges they decorate.
package ranges

import (
	"sort"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/words"
)

// ProximityThreshold is the largest distance, in bytes, between both
// endpoints for a symbol to attach to a nearby range. Tunable.
const ProximityThreshold = 10

// AnnotationRange is one char range and every annotation that applies to it.
type AnnotationRange struct {
	Start   int                            `json:"start"`
	End     int                            `json:"end"`
	Text    []*annotation.TextAnnotation   `json:"textAnnotations"`
	Symbols []*annotation.SymbolAnnotation `json:"symbolAnnotations"`
}

// Span returns the range bounds.
func (r *AnnotationRange) Span() words.Span {
	return words.Span{Start: r.Start, End: r.End}
}

// HasSymbols reports whether at least one symbol is attached.
func (r *AnnotationRange) HasSymbols() bool {
	return len(r.Symbols) > 0
}

func (r *AnnotationRange) widen(s words.Span) {
	u := r.Span().Union(s)
	r.Start, r.End = u.Start, u.End
}

// addSymbol attaches s unless the range already draws that glyph or holds
// that annotation.
func (r *AnnotationRange) addSymbol(s *annotation.SymbolAnnotation) {
	for _, have := range r.Symbols {
		if have.ID == s.ID || have.Symbol == s.Symbol {
			return
		}
	}
	r.Symbols = append(r.Symbols, s)
}

func (r *AnnotationRange) absorb(other *AnnotationRange) {
	r.widen(other.Span())
	for _, t := range other.Text {
		if !hasText(r.Text, t.ID) {
			r.Text = append(r.Text, t)
		}
	}
	for _, s := range other.Symbols {
		r.addSymbol(s)
	}
}

func hasText(ts []*annotation.TextAnnotation, id string) bool {
	for _, t := range ts {
		if t.ID == id {
			return true
		}
	}
	return false
}

// ============================================================================
// Matcher predicates
// ============================================================================

// Verse is the text predicates match against, tokenized and normalized once
// per Build.
type Verse struct {
	Text  string
	Words []string
}

// NewVerse normalizes text for the predicates.
func NewVerse(text string) *Verse {
	return &Verse{Text: text, Words: words.NormalizeAll(words.Tokenize(text))}
}

// Predicate decides whether a symbol span belongs to an existing range.
type Predicate struct {
	Name  string
	Match func(v *Verse, rng, sym words.Span) bool
}

// Predicates are tried in order; the first one that accepts any range wins.
var Predicates = []Predicate{
	{Name: "exact", Match: Exact},
	{Name: "overlap", Match: Overlap},
	{Name: "word", Match: SameWord},
	{Name: "proximity", Match: Near},
}

// Exact matches identical bounds.
func Exact(_ *Verse, rng, sym words.Span) bool {
	return rng == sym
}

// Overlap matches ranges sharing at least one byte.
func Overlap(_ *Verse, rng, sym words.Span) bool {
	return rng.Overlaps(sym)
}

// SameWord matches when both spans read as the same normalized words and
// that phrase occurs only once in the verse, so both must name it.
func SameWord(v *Verse, rng, sym words.Span) bool {
	key := normalizedPhrase(rng.Slice(v.Text))
	if len(key) == 0 || !equalWords(key, normalizedPhrase(sym.Slice(v.Text))) {
		return false
	}
	n := 0
	for i := 0; i+len(key) <= len(v.Words); i++ {
		if equalWords(v.Words[i:i+len(key)], key) {
			n++
		}
	}
	return n == 1
}

func normalizedPhrase(s string) []string {
	return words.NormalizeAll(words.Tokenize(s))
}

func equalWords(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Near matches when both endpoints are within ProximityThreshold bytes.
func Near(_ *Verse, rng, sym words.Span) bool {
	return abs(rng.Start-sym.Start) <= ProximityThreshold &&
		abs(rng.End-sym.End) <= ProximityThreshold
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ============================================================================
// Build
// ============================================================================

// Build turns the merged annotations of the verse at ref into ranges sorted
// by start. Text annotations that resolve to identical bounds share a range;
// in-flow symbols attach to a range via Predicates or open a new one.
// Out-of-bound offsets are clamped, never rejected.
func Build(text string, ref annotation.VerseRef, merged []annotation.Annotation) []AnnotationRange {
	ws := words.Tokenize(text)
	verse := &Verse{Text: text, Words: words.NormalizeAll(ws)}
	texts, symbols := annotation.Split(merged)

	var out []*AnnotationRange
	byBounds := make(map[words.Span]*AnnotationRange)

	for _, t := range texts {
		if !t.Range.IsSingleVerse() || t.Range.Start != ref {
			continue
		}
		res, ok := annotation.Resolve(ws, text, t.Coordinates())
		if !ok {
			continue
		}
		span := res.Span.Clamp(len(text))
		r, exists := byBounds[span]
		if !exists {
			r = &AnnotationRange{Start: span.Start, End: span.End}
			byBounds[span] = r
			out = append(out, r)
		}
		if !hasText(r.Text, t.ID) {
			r.Text = append(r.Text, t)
		}
	}

	for _, s := range symbols {
		if s.Ref != ref || !s.InTextFlow() {
			continue
		}
		res, ok := annotation.Resolve(ws, text, s.Coordinates())
		if !ok {
			continue
		}
		span := res.Span.Clamp(len(text))
		if r := attachTarget(verse, out, span); r != nil {
			r.widen(span)
			r.addSymbol(s)
			continue
		}
		r := &AnnotationRange{Start: span.Start, End: span.End}
		r.addSymbol(s)
		out = append(out, r)
	}

	return mergeSymbolOverlaps(out)
}

func attachTarget(v *Verse, rs []*AnnotationRange, span words.Span) *AnnotationRange {
	for _, p := range Predicates {
		for _, r := range rs {
			if p.Match(v, r.Span(), span) {
				return r
			}
		}
	}
	return nil
}

// mergeSymbolOverlaps sorts ranges and folds together neighbours that
// overlap after widening when both carry a symbol.
func mergeSymbolOverlaps(rs []*AnnotationRange) []AnnotationRange {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].End < rs[j].End
	})

	out := make([]AnnotationRange, 0, len(rs))
	for _, r := range rs {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if last.HasSymbols() && r.HasSymbols() && last.Span().Overlaps(r.Span()) {
				last.absorb(r)
				continue
			}
		}
		out = append(out, *r)
	}
	return out
}
