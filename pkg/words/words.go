// Package words splits verse text into whitespace-delimited words and maps
// between word-index and byte-offset coordinates.
package words

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ============================================================================
// Span
// ============================================================================

// Span is a half-open byte offset range [Start, End) in text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan creates a new Span
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the length of the span
func (s Span) Len() int {
	return s.End - s.Start
}

// IsEmpty returns true if the span covers no bytes
func (s Span) IsEmpty() bool {
	return s.Start >= s.End
}

// Slice extracts the text covered by this span
func (s Span) Slice(text string) string {
	if s.Start < 0 || s.End > len(text) || s.Start > s.End {
		return ""
	}
	return text[s.Start:s.End]
}

// Overlaps checks if spans overlap (half-open test)
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Union returns the smallest span covering both
func (s Span) Union(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// Clamp forces both endpoints into [0, n] and End >= Start.
func (s Span) Clamp(n int) Span {
	s.Start = clampInt(s.Start, 0, n)
	s.End = clampInt(s.End, 0, n)
	if s.End < s.Start {
		s.End = s.Start
	}
	return s
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WordSpan is an inclusive range of word indices.
type WordSpan struct {
	Start int `json:"startWordIndex"`
	End   int `json:"endWordIndex"`
}

// Len returns the number of words covered
func (w WordSpan) Len() int {
	return w.End - w.Start + 1
}

// Overlaps checks if two inclusive word ranges share a word
func (w WordSpan) Overlaps(other WordSpan) bool {
	return w.Start <= other.End && other.Start <= w.End
}

// ============================================================================
// Tokenizer
// ============================================================================

// Word is a maximal run of non-whitespace with its byte offsets.
type Word struct {
	Text  string `json:"text"`
	Start int    `json:"startOffset"`
	End   int    `json:"endOffset"`
}

// Span returns the byte span of the word
func (w Word) Span() Span {
	return Span{Start: w.Start, End: w.End}
}

// Tokenize splits text on whitespace runs. Empty input yields nil.
func Tokenize(text string) []Word {
	// Heuristic: Average word length 5 + separator.
	out := make([]Word, 0, len(text)/6)
	start := -1

	for i, ch := range text {
		if unicode.IsSpace(ch) {
			if start != -1 {
				out = append(out, Word{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		out = append(out, Word{Text: text[start:], Start: start, End: len(text)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Count returns the number of words in text.
func Count(text string) int {
	return len(strings.Fields(text))
}

// ============================================================================
// Offset Mapper
// ============================================================================

// WordIndicesToCharOffsets converts an inclusive word range into the byte span
// running from the first word's start to the last word's end.
func WordIndicesToCharOffsets(text string, startWord, endWord int) (Span, bool) {
	return WordSpanToChars(Tokenize(text), WordSpan{Start: startWord, End: endWord})
}

// WordSpanToChars is WordIndicesToCharOffsets over pre-tokenized words.
func WordSpanToChars(ws []Word, span WordSpan) (Span, bool) {
	if span.Start < 0 || span.End < 0 || span.Start >= len(ws) || span.End >= len(ws) {
		return Span{}, false
	}
	if span.End < span.Start {
		return Span{}, false
	}
	return Span{Start: ws[span.Start].Start, End: ws[span.End].End}, true
}

// CharOffsetsToWordIndices returns the inclusive range of words overlapping
// the byte span [start, end).
func CharOffsetsToWordIndices(text string, start, end int) (WordSpan, bool) {
	return CharsToWordSpan(Tokenize(text), Span{Start: start, End: end})
}

// CharsToWordSpan is CharOffsetsToWordIndices over pre-tokenized words.
func CharsToWordSpan(ws []Word, span Span) (WordSpan, bool) {
	first, last := -1, -1
	for i, w := range ws {
		if w.Span().Overlaps(span) {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if first == -1 {
		return WordSpan{}, false
	}
	return WordSpan{Start: first, End: last}, true
}

// ============================================================================
// Word characters & normalization
// ============================================================================

// IsWordRune reports whether r belongs to a word (letter, digit or underscore).
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// NormalizeWord strips leading and trailing non-word characters, folds to
// NFC and lower-cases.
func NormalizeWord(w string) string {
	w = norm.NFC.String(w)
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool { return !IsWordRune(r) }))
}

// NormalizeAll normalizes every word of a token list.
func NormalizeAll(ws []Word) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = NormalizeWord(w.Text)
	}
	return out
}

// TrimToWord removes leading and trailing non-word characters from a raw
// selection string.
func TrimToWord(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return !IsWordRune(r) })
}

// ExpandToWordBoundaries drops leading and trailing non-word characters from
// [start, end) and then widens it outward to whole words, so punctuation is
// never part of a selection. Offsets are clamped into text first.
func ExpandToWordBoundaries(text string, start, end int) Span {
	span := Span{Start: start, End: end}.Clamp(len(text))
	s, e := span.Start, span.End

	for s > 0 && s < len(text) && !utf8.RuneStart(text[s]) {
		s--
	}
	for e < len(text) && !utf8.RuneStart(text[e]) {
		e++
	}

	for s < e {
		r, size := utf8.DecodeRuneInString(text[s:])
		if IsWordRune(r) {
			break
		}
		s += size
	}
	for e > s {
		r, size := utf8.DecodeLastRuneInString(text[:e])
		if IsWordRune(r) {
			break
		}
		e -= size
	}
	if s == e {
		return Span{Start: s, End: s}
	}

	for s > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:s])
		if !IsWordRune(r) {
			break
		}
		s -= size
	}
	for e < len(text) {
		r, size := utf8.DecodeRuneInString(text[e:])
		if !IsWordRune(r) {
			break
		}
		e += size
	}
	return Span{Start: s, End: e}
}

// SnapToRune moves an offset back to the nearest rune start.
func SnapToRune(text string, off int) int {
	for off > 0 && off < len(text) && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}
