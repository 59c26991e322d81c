package words

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genesis = "In the beginning God created the heavens and the earth."

func TestTokenize(t *testing.T) {
	ws := Tokenize(genesis)
	require.Len(t, ws, 10)

	assert.Equal(t, "In", ws[0].Text)
	assert.Equal(t, Word{Text: "God", Start: 17, End: 20}, ws[3])
	assert.Equal(t, "earth.", ws[9].Text)
	assert.Equal(t, len(genesis), ws[9].End)
}

func TestTokenizeEmptyAndWhitespace(t *testing.T) {
	assert.Nil(t, Tokenize(""))
	assert.Nil(t, Tokenize("   \t\n"))
}

func TestTokenizeReconstructs(t *testing.T) {
	text := "  And God said,\tLet there be light:  and there was light. "
	ws := Tokenize(text)

	var b strings.Builder
	prev := 0
	for i, w := range ws {
		if i > 0 {
			assert.GreaterOrEqual(t, w.Start, ws[i-1].End, "words must not overlap")
		}
		gap := text[prev:w.Start]
		assert.Empty(t, strings.TrimSpace(gap), "gap must be whitespace only")
		b.WriteString(gap)
		b.WriteString(w.Text)
		prev = w.End
	}
	b.WriteString(text[prev:])
	assert.Equal(t, text, b.String())
}

func TestWordIndicesToCharOffsets(t *testing.T) {
	span, ok := WordIndicesToCharOffsets(genesis, 3, 3)
	require.True(t, ok)
	assert.Equal(t, Span{Start: 17, End: 20}, span)
	assert.Equal(t, "God", span.Slice(genesis))

	span, ok = WordIndicesToCharOffsets(genesis, 2, 4)
	require.True(t, ok)
	assert.Equal(t, "beginning God created", span.Slice(genesis))
}

func TestWordIndicesToCharOffsetsOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
	}{
		{"start past end of verse", 10, 10},
		{"end past end of verse", 0, 10},
		{"negative", -1, 2},
		{"inverted", 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := WordIndicesToCharOffsets(genesis, tt.start, tt.end)
			assert.False(t, ok)
		})
	}

	_, ok := WordIndicesToCharOffsets("", 0, 0)
	assert.False(t, ok)
}

func TestOffsetRoundTrip(t *testing.T) {
	texts := []string{
		genesis,
		"the LORD is my shepherd the LORD is good",
		"  Jesus   wept.  ",
		"«Ἐν ἀρχῇ ἦν ὁ λόγος»",
	}
	for _, text := range texts {
		ws := Tokenize(text)
		for i := range ws {
			for j := i; j < len(ws); j++ {
				span, ok := WordIndicesToCharOffsets(text, i, j)
				require.True(t, ok)

				sub := Tokenize(span.Slice(text))
				require.Len(t, sub, j-i+1)
				for k := range sub {
					assert.Equal(t, ws[i+k].Text, sub[k].Text)
				}

				back, ok := CharOffsetsToWordIndices(text, span.Start, span.End)
				require.True(t, ok)
				assert.Equal(t, WordSpan{Start: i, End: j}, back)
			}
		}
	}
}

func TestCharOffsetsToWordIndicesMiss(t *testing.T) {
	_, ok := CharOffsetsToWordIndices("a  b", 1, 3)
	assert.False(t, ok, "span covering only whitespace has no words")

	ws, ok := CharOffsetsToWordIndices(genesis, 18, 19)
	require.True(t, ok)
	assert.Equal(t, WordSpan{Start: 3, End: 3}, ws)
}

func TestNormalizeWord(t *testing.T) {
	assert.Equal(t, "god", NormalizeWord("God,"))
	assert.Equal(t, "god", NormalizeWord("“God”"))
	assert.Equal(t, "lord's", NormalizeWord("(LORD's)"))
	assert.Equal(t, "", NormalizeWord("..."))
	// NFD input folds to the same key as NFC input.
	assert.Equal(t, NormalizeWord("café"), NormalizeWord("café"))
}

func TestExpandToWordBoundaries(t *testing.T) {
	text := "the LORD, my shepherd."

	tests := []struct {
		name       string
		start, end int
		want       string
	}{
		{"partial word", 5, 7, "LORD"},
		{"trailing comma dropped", 5, 9, "LORD"},
		{"leading space dropped", 3, 8, "LORD"},
		{"multiple words", 6, 12, "LORD, my"},
		{"final period dropped", 13, 22, "shepherd"},
		{"out of range clamps", 13, 500, "shepherd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpandToWordBoundaries(text, tt.start, tt.end)
			assert.Equal(t, tt.want, got.Slice(text))
		})
	}
}

func TestSpanClamp(t *testing.T) {
	assert.Equal(t, Span{Start: 40, End: 40}, Span{Start: 500, End: 510}.Clamp(40))
	assert.Equal(t, Span{Start: 0, End: 3}, Span{Start: -4, End: 3}.Clamp(40))
	assert.Equal(t, Span{Start: 9, End: 9}, Span{Start: 9, End: 2}.Clamp(40))
}

func TestTrimToWord(t *testing.T) {
	assert.Equal(t, "my shepherd", TrimToWord(" my shepherd; "))
	assert.Equal(t, "", TrimToWord(" , "))
}
