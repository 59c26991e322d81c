// Package segment cuts verse text at annotation range boundaries into an
// ordered, gap-free run of styled segments.
package segment

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/ranges"
	"github.com/kittclouds/biblemarker/pkg/words"
)

// TextSegment is a run of verse text sharing one set of annotations.
type TextSegment struct {
	Start       int                            `json:"start"`
	End         int                            `json:"end"`
	Text        string                         `json:"text"`
	Annotations []*annotation.TextAnnotation   `json:"annotations,omitempty"`
	Symbols     []*annotation.SymbolAnnotation `json:"symbols,omitempty"`
}

// IsPlain reports a segment with nothing to draw.
func (s TextSegment) IsPlain() bool {
	return len(s.Annotations) == 0 && len(s.Symbols) == 0
}

// Segment tiles [0, len(text)) at every range boundary. A segment carries
// every range overlapping it; symbols are kept once per key, first range
// first.
func Segment(text string, rs []ranges.AnnotationRange) []TextSegment {
	if text == "" {
		return nil
	}

	spans := make([]words.Span, len(rs))
	for i, r := range rs {
		spans[i] = clampSpan(text, r.Span())
	}
	bounds := boundaries(text, spans)
	out := make([]TextSegment, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		seg := TextSegment{Start: bounds[i], End: bounds[i+1]}
		seg.Text = text[seg.Start:seg.End]
		span := words.Span{Start: seg.Start, End: seg.End}

		seenText := make(map[string]bool)
		seenSym := make(map[string]bool)
		for j := range rs {
			r := &rs[j]
			if !spans[j].Overlaps(span) {
				continue
			}
			for _, a := range r.Text {
				if !seenText[a.ID] {
					seenText[a.ID] = true
					seg.Annotations = append(seg.Annotations, a)
				}
			}
			for _, s := range r.Symbols {
				if !seenSym[s.Symbol] {
					seenSym[s.Symbol] = true
					seg.Symbols = append(seg.Symbols, s)
				}
			}
		}
		out = append(out, seg)
	}
	return out
}

func clampSpan(text string, s words.Span) words.Span {
	s = s.Clamp(len(text))
	s.Start = words.SnapToRune(text, s.Start)
	s.End = words.SnapToRune(text, s.End)
	return s
}

// boundaries returns the sorted, distinct cut points including 0 and
// len(text).
func boundaries(text string, spans []words.Span) []int {
	set := map[int]struct{}{0: {}, len(text): {}}
	for _, span := range spans {
		set[span.Start] = struct{}{}
		set[span.End] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Ints(out)
	return out
}

// ============================================================================
// Combined style
// ============================================================================

// Default colors used when an annotation leaves its color empty.
const (
	DefaultHighlight = "#fff59d"
	DefaultTextColor = "#c62828"
)

// Style is the stacked visual treatment of a segment. Highlight, text color
// and underline are independent; a later annotation of the same kind
// replaces an earlier one.
type Style struct {
	Background     string                    `json:"background,omitempty"`
	Color          string                    `json:"color,omitempty"`
	Underline      bool                      `json:"underline,omitempty"`
	UnderlineStyle annotation.UnderlineStyle `json:"underlineStyle,omitempty"`
	UnderlineColor string                    `json:"underlineColor,omitempty"`
}

// IsZero reports an unstyled segment.
func (s Style) IsZero() bool {
	return s == Style{}
}

// CSS renders the style as an inline declaration list.
func (s Style) CSS() string {
	var parts []string
	if s.Background != "" {
		parts = append(parts, "background-color: "+s.Background)
	}
	if s.Color != "" {
		parts = append(parts, "color: "+s.Color)
	}
	if s.Underline {
		decl := "text-decoration: underline " + string(s.UnderlineStyle)
		if s.UnderlineColor != "" {
			decl += " " + s.UnderlineColor
		}
		parts = append(parts, decl)
	}
	return strings.Join(parts, "; ")
}

// Style stacks the segment's text annotations.
func (s TextSegment) Style() Style {
	var st Style
	for _, a := range s.Annotations {
		switch a.Kind {
		case annotation.StyleHighlight:
			st.Background = orDefault(a.Color, DefaultHighlight)
		case annotation.StyleTextColor:
			st.Color = orDefault(a.Color, DefaultTextColor)
		case annotation.StyleUnderline:
			st.Underline = true
			st.UnderlineStyle = a.Underline
			if st.UnderlineStyle == "" {
				st.UnderlineStyle = annotation.UnderlineSolid
			}
			st.UnderlineColor = a.Color
		}
	}
	return st
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ============================================================================
// Punctuation
// ============================================================================

// SplitPunctuation isolates leading and trailing non-word characters so a
// symbol glyph attaches to the word and never to a following comma or
// period. Whitespace counts as punctuation here.
func SplitPunctuation(s string) (lead, word, trail string) {
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if words.IsWordRune(r) {
			break
		}
		i += size
	}
	j := len(s)
	for j > i {
		r, size := utf8.DecodeLastRuneInString(s[:j])
		if words.IsWordRune(r) {
			break
		}
		j -= size
	}
	return s[:i], s[i:j], s[j:]
}
