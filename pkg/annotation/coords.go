package annotation

import "github.com/kittclouds/biblemarker/pkg/words"

// CoordKind distinguishes the two coordinate systems.
type CoordKind int

const (
	// KindWords is an inclusive word-index range (translation independent).
	KindWords CoordKind = iota
	// KindChars is an end-exclusive byte-offset range (legacy).
	KindChars
)

func (k CoordKind) String() string {
	if k == KindWords {
		return "words"
	}
	return "chars"
}

// Coordinates is WordRange(a, b) | CharRange(a, b).
type Coordinates struct {
	Kind  CoordKind
	Start int
	End   int
}

// WordRange builds word-index coordinates.
func WordRange(start, end int) Coordinates {
	return Coordinates{Kind: KindWords, Start: start, End: end}
}

// CharRange builds char-offset coordinates.
func CharRange(start, end int) Coordinates {
	return Coordinates{Kind: KindChars, Start: start, End: end}
}

// Resolution is the canonical char range produced for one annotation.
type Resolution struct {
	Span words.Span
	// Via is the coordinate system that produced Span.
	Via CoordKind
	// Clamped is set when char offsets had to be forced into the text.
	Clamped bool
}

// Resolve produces one canonical char range from coordinates listed in
// precedence order. Word ranges that do not fit the text fall through to the
// next entry; char ranges are clamped into [0, len(text)] and never rejected.
func Resolve(ws []words.Word, text string, coords []Coordinates) (Resolution, bool) {
	for _, c := range coords {
		switch c.Kind {
		case KindWords:
			if span, ok := words.WordSpanToChars(ws, words.WordSpan{Start: c.Start, End: c.End}); ok {
				return Resolution{Span: span, Via: KindWords}, true
			}
		case KindChars:
			raw := words.Span{Start: c.Start, End: c.End}
			span := raw.Clamp(len(text))
			span.Start = words.SnapToRune(text, span.Start)
			span.End = words.SnapToRune(text, span.End)
			return Resolution{Span: span, Via: KindChars, Clamped: span != raw}, true
		}
	}
	return Resolution{}, false
}

// ResolveAnnotation is Resolve for a single annotation against text.
func ResolveAnnotation(text string, a Annotation) (Resolution, bool) {
	return Resolve(words.Tokenize(text), text, a.Coordinates())
}
