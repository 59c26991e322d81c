package segment

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/ranges"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesis = "In the beginning God created the heavens and the earth."

func ta(id string, kind annotation.StyleKind, color string) *annotation.TextAnnotation {
	return &annotation.TextAnnotation{ID: id, CollectionID: "default", Kind: kind, Color: color}
}

func sym(id, key string) *annotation.SymbolAnnotation {
	return &annotation.SymbolAnnotation{ID: id, CollectionID: "default", Symbol: key, Position: annotation.PositionCenter}
}

func assertTiles(t *testing.T, text string, segs []TextSegment) {
	t.Helper()
	var b strings.Builder
	pos := 0
	for _, s := range segs {
		require.Equal(t, pos, s.Start, "gap or overlap at %d", pos)
		require.Less(t, s.Start, s.End)
		require.Equal(t, text[s.Start:s.End], s.Text)
		b.WriteString(s.Text)
		pos = s.End
	}
	assert.Equal(t, len(text), pos)
	assert.Equal(t, text, b.String())
}

func TestAdjacentRangesSplitAtSharedBoundary(t *testing.T) {
	text := "Godloves you"
	segs := Segment(text, []ranges.AnnotationRange{
		{Start: 0, End: 3, Text: []*annotation.TextAnnotation{ta("a", annotation.StyleHighlight, "")}},
		{Start: 3, End: 7, Text: []*annotation.TextAnnotation{ta("b", annotation.StyleUnderline, "")}},
	})
	require.Len(t, segs, 3)
	assertTiles(t, text, segs)

	assert.Equal(t, "God", segs[0].Text)
	assert.Equal(t, "a", segs[0].Annotations[0].ID)
	assert.Equal(t, "love", segs[1].Text)
	assert.Equal(t, "b", segs[1].Annotations[0].ID)
	assert.True(t, segs[2].IsPlain())
}

func TestOverlappingRangesStackAnnotations(t *testing.T) {
	segs := Segment(genesis, []ranges.AnnotationRange{
		{Start: 0, End: 16, Text: []*annotation.TextAnnotation{ta("a", annotation.StyleHighlight, "")}},
		{Start: 7, End: 20, Text: []*annotation.TextAnnotation{ta("b", annotation.StyleTextColor, "")}},
	})
	assertTiles(t, genesis, segs)
	require.Len(t, segs, 4)
	assert.Len(t, segs[0].Annotations, 1)
	assert.Len(t, segs[1].Annotations, 2)
	assert.Equal(t, "beginning", segs[1].Text)
	assert.Equal(t, "b", segs[2].Annotations[0].ID)
}

func TestSymbolsDedupedFirstRangeWins(t *testing.T) {
	segs := Segment(genesis, []ranges.AnnotationRange{
		{Start: 17, End: 20, Symbols: []*annotation.SymbolAnnotation{sym("first", "crown")}},
		{Start: 17, End: 28, Symbols: []*annotation.SymbolAnnotation{sym("second", "crown"), sym("third", "star")}},
	})
	assertTiles(t, genesis, segs)

	var god TextSegment
	for _, s := range segs {
		if s.Text == "God" {
			god = s
		}
	}
	require.Len(t, god.Symbols, 2)
	assert.Equal(t, "first", god.Symbols[0].ID)
	assert.Equal(t, "third", god.Symbols[1].ID)
}

func TestEmptyAndClampedRanges(t *testing.T) {
	short := "Jesus wept, and the crowd wondered why."
	segs := Segment(short, []ranges.AnnotationRange{
		{Start: 39, End: 39, Text: []*annotation.TextAnnotation{ta("stale", annotation.StyleHighlight, "")}},
		{Start: 30, End: 900},
	})
	assertTiles(t, short, segs)
	assert.Empty(t, segs[len(segs)-1].Annotations, "empty range covers nothing")

	assert.Empty(t, Segment("", nil))
	assertTiles(t, short, Segment(short, nil))
}

func TestTilingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	texts := []string{genesis, "Jesus wept.", "Ἐν ἀρχῇ ἦν ὁ λόγος", "a"}
	for _, text := range texts {
		for i := 0; i < 50; i++ {
			var rs []ranges.AnnotationRange
			for n := rng.Intn(6); n > 0; n-- {
				a, b := rng.Intn(len(text)+20)-10, rng.Intn(len(text)+20)-10
				rs = append(rs, ranges.AnnotationRange{
					Start:   a,
					End:     b,
					Text:    []*annotation.TextAnnotation{ta("t", annotation.StyleHighlight, "")},
					Symbols: []*annotation.SymbolAnnotation{sym("s", "crown"), sym("s2", "crown")},
				})
			}
			segs := Segment(text, rs)
			assertTiles(t, text, segs)
			for _, s := range segs {
				seen := map[string]bool{}
				for _, x := range s.Symbols {
					assert.False(t, seen[x.Symbol])
					seen[x.Symbol] = true
				}
			}
		}
	}
}

func TestStyleStacksIndependently(t *testing.T) {
	seg := TextSegment{Annotations: []*annotation.TextAnnotation{
		ta("h", annotation.StyleHighlight, ""),
		ta("c", annotation.StyleTextColor, "blue"),
		{ID: "u", Kind: annotation.StyleUnderline, Underline: annotation.UnderlineWavy, Color: "red"},
		ta("h2", annotation.StyleHighlight, "green"),
	}}
	st := seg.Style()
	assert.Equal(t, "green", st.Background)
	assert.Equal(t, "blue", st.Color)
	assert.True(t, st.Underline)
	assert.Equal(t, annotation.UnderlineWavy, st.UnderlineStyle)
	assert.Equal(t, "background-color: green; color: blue; text-decoration: underline wavy red", st.CSS())

	assert.True(t, TextSegment{}.Style().IsZero())
	plainUnderline := TextSegment{Annotations: []*annotation.TextAnnotation{ta("u", annotation.StyleUnderline, "")}}
	assert.Equal(t, "text-decoration: underline solid", plainUnderline.Style().CSS())
}

func TestSplitPunctuation(t *testing.T) {
	tests := []struct {
		in, lead, word, trail string
	}{
		{"God,", "", "God", ","},
		{"(LORD)", "(", "LORD", ")"},
		{"earth.", "", "earth", "."},
		{"word", "", "word", ""},
		{" the ", " ", "the", " "},
		{"—", "—", "", ""},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		lead, word, trail := SplitPunctuation(tt.in)
		assert.Equal(t, tt.lead, lead, tt.in)
		assert.Equal(t, tt.word, word, tt.in)
		assert.Equal(t, tt.trail, trail, tt.in)
	}
}
