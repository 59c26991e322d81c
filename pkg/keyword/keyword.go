// Package keyword turns keyword presets into virtual annotations.
// One Aho-Corasick automaton over every preset surface form scans a verse in
// a single pass.
package keyword

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/orsinium-labs/stopwords"
	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/words"
)

// ============================================================================
// String Utilities
// ============================================================================

// NormalizeRaw cleans and lowercases a surface form for matching.
func NormalizeRaw(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	for _, ch := range s {
		c := unicode.ToLower(ch)

		// Curly apostrophe -> straight
		if c == '’' {
			out.WriteRune('\'')
			continue
		}

		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\'' {
			out.WriteRune(c)
		} else {
			out.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(out.String()), " ")
}

var english = stopwords.MustGet("en")

// IsStopWord reports whether a single normalized word is an English stop word.
func IsStopWord(w string) bool {
	return english.Contains(w)
}

// ============================================================================
// Presets
// ============================================================================

// Preset is a reusable keyword rule: a word, its variants and the annotation
// every match spawns. A preset with a Symbol yields symbol annotations;
// otherwise it yields text annotations of Style.
type Preset struct {
	ID             string                    `json:"id"`
	Word           string                    `json:"word"`
	Variants       []string                  `json:"variants,omitempty"`
	Symbol         string                    `json:"symbol,omitempty"`
	Position       annotation.SymbolPosition `json:"position,omitempty"`
	Style          annotation.StyleKind      `json:"style,omitempty"`
	Color          string                    `json:"color,omitempty"`
	Underline      annotation.UnderlineStyle `json:"underlineStyle,omitempty"`
	AllowStopWords bool                      `json:"allowStopWords,omitempty"`
}

// Surfaces returns the preset's word followed by its variants.
func (p Preset) Surfaces() []string {
	return append([]string{p.Word}, p.Variants...)
}

// ErrInvalidPreset is returned for presets that cannot be compiled.
var ErrInvalidPreset = errors.New("invalid preset")

// Validate checks a preset for the fields compilation depends on.
func (p Preset) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPreset)
	}
	if NormalizeRaw(p.Word) == "" {
		return fmt.Errorf("%w: preset %s has no word", ErrInvalidPreset, p.ID)
	}
	if p.Symbol == "" && p.Style != "" && !p.Style.IsValid() {
		return fmt.Errorf("%w: preset %s has unknown style %q", ErrInvalidPreset, p.ID, p.Style)
	}
	return nil
}

// ============================================================================
// Matcher
// ============================================================================

// Matcher scans verse text for every compiled preset.
type Matcher struct {
	ac ahocorasick.AhoCorasick

	// Pattern index -> preset indexes (multiple presets may share a pattern)
	patternPresets [][]int

	// Normalized pattern -> pattern index
	patternIndex map[string]int

	// All patterns in order (for AC builder)
	patterns []string

	presets []Preset
}

// Compile builds a Matcher from presets. Single stop-word surface forms are
// skipped unless the preset allows them.
func Compile(presets []Preset) (*Matcher, error) {
	m := &Matcher{
		patternIndex: make(map[string]int),
		presets:      make([]Preset, 0, len(presets)),
	}

	seen := make(map[string]bool, len(presets))
	for _, p := range presets {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidPreset, p.ID)
		}
		seen[p.ID] = true

		pi := len(m.presets)
		m.presets = append(m.presets, p)

		for _, surface := range p.Surfaces() {
			key := NormalizeRaw(surface)
			if key == "" {
				continue
			}
			if !p.AllowStopWords && !strings.Contains(key, " ") && IsStopWord(key) {
				continue
			}

			if idx, exists := m.patternIndex[key]; exists {
				m.patternPresets[idx] = appendUnique(m.patternPresets[idx], pi)
			} else {
				idx := len(m.patterns)
				m.patterns = append(m.patterns, key)
				m.patternIndex[key] = idx
				m.patternPresets = append(m.patternPresets, []int{pi})
			}
		}
	}

	if len(m.patterns) > 0 {
		builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
			AsciiCaseInsensitive: true,
			MatchOnlyWholeWords:  false,
			MatchKind:            ahocorasick.LeftMostLongestMatch,
		})
		m.ac = builder.Build(m.patterns)
	}

	return m, nil
}

// Presets returns the compiled presets in input order.
func (m *Matcher) Presets() []Preset {
	return m.presets
}

// Hit is one whole-word occurrence of a pattern.
type Hit struct {
	Span    words.Span
	Text    string
	Presets []int
}

// Scan finds all whole-word pattern occurrences in text.
//
// The automaton reports leftmost-longest matches without looking at word
// boundaries. A match that is not a whole word is replaced by the longest
// shorter whole-word pattern at the same start, if any, and scanning resumes
// right after what was kept.
func (m *Matcher) Scan(text string) []Hit {
	if len(m.patterns) == 0 || text == "" {
		return nil
	}

	var out []Hit
	pos := 0
	for pos < len(text) {
		resume := -1
		for _, am := range m.ac.FindAll(text[pos:]) {
			start, end := pos+am.Start(), pos+am.End()
			if wholeWord(text, start, end) {
				out = append(out, m.hit(text, start, end, am.Pattern()))
				continue
			}
			if h, ok := m.shorterAt(text, start, end); ok {
				out = append(out, h)
				resume = h.Span.End
			} else {
				_, size := utf8.DecodeRuneInString(text[start:])
				resume = start + size
			}
			break
		}
		if resume < 0 {
			break
		}
		pos = resume
	}
	return out
}

// shorterAt returns the longest whole-word pattern occurrence that starts at
// start and ends before end.
func (m *Matcher) shorterAt(text string, start, end int) (Hit, bool) {
	best, bestLen := -1, 0
	for i, p := range m.patterns {
		n := len(p)
		if n <= bestLen || start+n >= end {
			continue
		}
		if strings.EqualFold(text[start:start+n], p) && wholeWord(text, start, start+n) {
			best, bestLen = i, n
		}
	}
	if best < 0 {
		return Hit{}, false
	}
	return m.hit(text, start, start+bestLen, best), true
}

func (m *Matcher) hit(text string, start, end, pattern int) Hit {
	return Hit{
		Span:    words.Span{Start: start, End: end},
		Text:    text[start:end],
		Presets: m.patternPresets[pattern],
	}
}

// Match returns the virtual annotations every preset spawns on one verse.
func (m *Matcher) Match(text string, ref annotation.VerseRef) []annotation.Annotation {
	var out []annotation.Annotation
	for _, h := range m.Scan(text) {
		for _, pi := range h.Presets {
			out = append(out, m.presets[pi].Spawn(ref, h.Span))
		}
	}
	return out
}

// Spawn builds the virtual annotation for one match of the preset.
func (p Preset) Spawn(ref annotation.VerseRef, span words.Span) annotation.Annotation {
	id := VirtualID(p.ID, ref, span.Start)
	loc := annotation.AtChars(span.Start, span.End)

	if p.Symbol != "" {
		pos := p.Position
		if pos == "" {
			pos = annotation.PositionCenter
		}
		return &annotation.SymbolAnnotation{
			ID:       id,
			Ref:      ref,
			Symbol:   p.Symbol,
			Color:    p.Color,
			Position: pos,
			Location: loc,
			PresetID: p.ID,
		}
	}

	style := p.Style
	if style == "" {
		style = annotation.StyleHighlight
	}
	return &annotation.TextAnnotation{
		ID:        id,
		Range:     annotation.Single(ref),
		Location:  loc,
		Kind:      style,
		Color:     p.Color,
		Underline: p.Underline,
		PresetID:  p.ID,
	}
}

// VirtualID is the deterministic id of a preset match.
func VirtualID(presetID string, ref annotation.VerseRef, start int) string {
	return fmt.Sprintf("virtual:%s:%s:%d", presetID, ref.Key(), start)
}

// RecomputeVirtualAnnotations compiles presets and matches them against one
// verse. Callers memoize the result by (text, presets).
func RecomputeVirtualAnnotations(text string, ref annotation.VerseRef, presets []Preset) ([]annotation.Annotation, error) {
	m, err := Compile(presets)
	if err != nil {
		return nil, err
	}
	return m.Match(text, ref), nil
}

// ============================================================================
// Helpers
// ============================================================================

func wholeWord(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if words.IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if words.IsWordRune(r) {
			return false
		}
	}
	return true
}

func appendUnique(slice []int, item int) []int {
	for _, s := range slice {
		if s == item {
			return slice
		}
	}
	return append(slice, item)
}
