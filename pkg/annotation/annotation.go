// Package annotation defines the verse annotation model shared by the
// resolver, merger, range builder and segmenter.
package annotation

import (
	"fmt"
	"strings"
)

// ============================================================================
// Verse references
// ============================================================================

// VerseRef addresses one verse.
type VerseRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

func (r VerseRef) String() string {
	return fmt.Sprintf("%s %d:%d", r.Book, r.Chapter, r.Verse)
}

// Key is a compact, id-safe form of the reference ("Gen.1.1").
func (r VerseRef) Key() string {
	return fmt.Sprintf("%s.%d.%d", r.Book, r.Chapter, r.Verse)
}

// Ordinal orders verses within one book.
func (r VerseRef) Ordinal() int {
	return r.Chapter*1000 + r.Verse
}

// ParseVerseRef parses "Book C:V" (book may contain spaces, e.g. "1 John 4:8").
func ParseVerseRef(s string) (VerseRef, error) {
	s = strings.TrimSpace(s)
	sp := strings.LastIndexByte(s, ' ')
	if sp <= 0 {
		return VerseRef{}, fmt.Errorf("invalid verse reference %q", s)
	}
	var ref VerseRef
	if _, err := fmt.Sscanf(s[sp+1:], "%d:%d", &ref.Chapter, &ref.Verse); err != nil {
		return VerseRef{}, fmt.Errorf("invalid verse reference %q: %w", s, err)
	}
	ref.Book = strings.TrimSpace(s[:sp])
	return ref, nil
}

// VerseRange spans one or more verses. Only single-verse ranges take part in
// segment merging; cross-verse ranges pass through untouched.
type VerseRange struct {
	Start VerseRef `json:"start"`
	End   VerseRef `json:"end"`
}

// Single returns a range covering exactly ref.
func Single(ref VerseRef) VerseRange {
	return VerseRange{Start: ref, End: ref}
}

// IsSingleVerse reports whether the range starts and ends on the same verse.
func (r VerseRange) IsSingleVerse() bool {
	return r.Start == r.End
}

// Contains reports whether ref lies inside the range (same book only).
func (r VerseRange) Contains(ref VerseRef) bool {
	if r.Start.Book != ref.Book || r.End.Book != ref.Book {
		return false
	}
	o := ref.Ordinal()
	return r.Start.Ordinal() <= o && o <= r.End.Ordinal()
}

// ============================================================================
// Style vocabulary
// ============================================================================

// StyleKind is the visual treatment of a text annotation.
type StyleKind string

const (
	StyleHighlight StyleKind = "highlight"
	StyleTextColor StyleKind = "textColor"
	StyleUnderline StyleKind = "underline"
)

// IsValid reports whether k is a known style.
func (k StyleKind) IsValid() bool {
	switch k {
	case StyleHighlight, StyleTextColor, StyleUnderline:
		return true
	}
	return false
}

// UnderlineStyle refines StyleUnderline.
type UnderlineStyle string

const (
	UnderlineSolid  UnderlineStyle = "solid"
	UnderlineDotted UnderlineStyle = "dotted"
	UnderlineDashed UnderlineStyle = "dashed"
	UnderlineDouble UnderlineStyle = "double"
	UnderlineWavy   UnderlineStyle = "wavy"
)

// SymbolPosition places a symbol relative to its target.
type SymbolPosition string

const (
	PositionBefore SymbolPosition = "before"
	PositionAfter  SymbolPosition = "after"
	PositionCenter SymbolPosition = "center"
)

// ============================================================================
// Annotations
// ============================================================================

// Annotation is the common view of text and symbol annotations used by the
// merger. Persisted annotations carry a collection id; virtual ones do not.
type Annotation interface {
	AnnotationID() string
	Preset() string
	IsVirtual() bool
	Verses() VerseRange
	Coordinates() []Coordinates
}

// Location holds the dual coordinate systems. Word indices are inclusive,
// char offsets are end-exclusive.
type Location struct {
	StartWordIndex *int `json:"startWordIndex,omitempty"`
	EndWordIndex   *int `json:"endWordIndex,omitempty"`
	StartOffset    *int `json:"startOffset,omitempty"`
	EndOffset      *int `json:"endOffset,omitempty"`
}

// AtWords builds a word-index location.
func AtWords(start, end int) Location {
	return Location{StartWordIndex: &start, EndWordIndex: &end}
}

// AtChars builds a char-offset location.
func AtChars(start, end int) Location {
	return Location{StartOffset: &start, EndOffset: &end}
}

// With returns a copy of l with the other location's coordinates added.
func (l Location) With(other Location) Location {
	if other.StartWordIndex != nil && other.EndWordIndex != nil {
		l.StartWordIndex, l.EndWordIndex = other.StartWordIndex, other.EndWordIndex
	}
	if other.StartOffset != nil && other.EndOffset != nil {
		l.StartOffset, l.EndOffset = other.StartOffset, other.EndOffset
	}
	return l
}

// HasWords reports whether word-index coordinates are present.
func (l Location) HasWords() bool {
	return l.StartWordIndex != nil && l.EndWordIndex != nil
}

// HasChars reports whether char-offset coordinates are present.
func (l Location) HasChars() bool {
	return l.StartOffset != nil && l.EndOffset != nil
}

// Coordinates lists the available coordinate systems in precedence order.
func (l Location) Coordinates() []Coordinates {
	var out []Coordinates
	if l.HasWords() {
		out = append(out, WordRange(*l.StartWordIndex, *l.EndWordIndex))
	}
	if l.HasChars() {
		out = append(out, CharRange(*l.StartOffset, *l.EndOffset))
	}
	return out
}

// TextAnnotation styles a range of words.
type TextAnnotation struct {
	ID           string         `json:"id"`
	CollectionID string         `json:"collectionId,omitempty"`
	Range        VerseRange     `json:"range"`
	Location                    // embedded coordinates
	Kind         StyleKind      `json:"type"`
	Color        string         `json:"color,omitempty"`
	Underline    UnderlineStyle `json:"underlineStyle,omitempty"`
	PresetID     string         `json:"presetId,omitempty"`
	CreatedAt    int64          `json:"createdAt"`
	UpdatedAt    int64          `json:"updatedAt"`
}

func (a *TextAnnotation) AnnotationID() string { return a.ID }
func (a *TextAnnotation) Preset() string       { return a.PresetID }
func (a *TextAnnotation) IsVirtual() bool      { return a.CollectionID == "" }
func (a *TextAnnotation) Verses() VerseRange   { return a.Range }

// SymbolAnnotation places a glyph on a word range or, for legacy
// before/after symbols without coordinates, on the verse as a whole.
type SymbolAnnotation struct {
	ID           string         `json:"id"`
	CollectionID string         `json:"collectionId,omitempty"`
	Ref          VerseRef       `json:"ref"`
	Symbol       string         `json:"symbol"`
	Color        string         `json:"color,omitempty"`
	Position     SymbolPosition `json:"position"`
	Location                    // embedded coordinates
	PresetID     string         `json:"presetId,omitempty"`
	CreatedAt    int64          `json:"createdAt"`
	UpdatedAt    int64          `json:"updatedAt"`
}

func (s *SymbolAnnotation) AnnotationID() string { return s.ID }
func (s *SymbolAnnotation) Preset() string       { return s.PresetID }
func (s *SymbolAnnotation) IsVirtual() bool      { return s.CollectionID == "" }
func (s *SymbolAnnotation) Verses() VerseRange   { return Single(s.Ref) }

// IsLegacyDecoration reports a before/after symbol that has no word index and
// is therefore drawn outside the text flow.
func (s *SymbolAnnotation) IsLegacyDecoration() bool {
	return (s.Position == PositionBefore || s.Position == PositionAfter) && !s.HasWords()
}

// InTextFlow reports whether the symbol takes part in segment merging.
func (s *SymbolAnnotation) InTextFlow() bool {
	switch s.Position {
	case PositionCenter, PositionBefore:
		return !s.IsLegacyDecoration() && len(s.Coordinates()) > 0
	}
	return false
}

var (
	_ Annotation = (*TextAnnotation)(nil)
	_ Annotation = (*SymbolAnnotation)(nil)
)

// ============================================================================
// Verse-level decorations
// ============================================================================

// Decorations are legacy symbols drawn before or after the verse text.
type Decorations struct {
	Before []*SymbolAnnotation `json:"before,omitempty"`
	After  []*SymbolAnnotation `json:"after,omitempty"`
}

// VerseDecorations picks the legacy before/after symbols for ref.
func VerseDecorations(symbols []*SymbolAnnotation, ref VerseRef) Decorations {
	var d Decorations
	for _, s := range symbols {
		if s.Ref != ref || !s.IsLegacyDecoration() {
			continue
		}
		if s.Position == PositionBefore {
			d.Before = append(d.Before, s)
		} else {
			d.After = append(d.After, s)
		}
	}
	return d
}

// Split separates a mixed annotation list by concrete type.
func Split(all []Annotation) ([]*TextAnnotation, []*SymbolAnnotation) {
	var texts []*TextAnnotation
	var symbols []*SymbolAnnotation
	for _, a := range all {
		switch v := a.(type) {
		case *TextAnnotation:
			texts = append(texts, v)
		case *SymbolAnnotation:
			symbols = append(symbols, v)
		}
	}
	return texts, symbols
}
