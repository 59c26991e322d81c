package keyword

import (
	"testing"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/words"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ps231 = annotation.VerseRef{Book: "Ps", Chapter: 23, Verse: 1}

func TestNormalizeRaw(t *testing.T) {
	assert.Equal(t, "lord's", NormalizeRaw("LORD’s"))
	assert.Equal(t, "son of man", NormalizeRaw("  Son-of  Man! "))
	assert.Equal(t, "", NormalizeRaw("—"))
}

func TestMatchSymbolPreset(t *testing.T) {
	presets := []Preset{{ID: "deity", Word: "LORD", Variants: []string{"God"}, Symbol: "crown", Color: "#c90"}}
	text := "The LORD is my shepherd; God is good, godly and lordly."

	got, err := RecomputeVirtualAnnotations(text, ps231, presets)
	require.NoError(t, err)
	require.Len(t, got, 2, "godly and lordly are not whole-word matches")

	first, ok := got[0].(*annotation.SymbolAnnotation)
	require.True(t, ok)
	assert.True(t, first.IsVirtual())
	assert.Equal(t, "deity", first.PresetID)
	assert.Equal(t, annotation.PositionCenter, first.Position)
	assert.Equal(t, "crown", first.Symbol)
	assert.Equal(t, "virtual:deity:Ps.23.1:4", first.ID)

	res, ok := annotation.ResolveAnnotation(text, first)
	require.True(t, ok)
	assert.Equal(t, "LORD", res.Span.Slice(text))

	second := got[1].(*annotation.SymbolAnnotation)
	res, _ = annotation.ResolveAnnotation(text, second)
	assert.Equal(t, "God", res.Span.Slice(text))
}

func TestMatchTextPreset(t *testing.T) {
	presets := []Preset{{ID: "grace", Word: "grace", Style: annotation.StyleUnderline, Underline: annotation.UnderlineWavy}}
	got, err := RecomputeVirtualAnnotations("By grace are ye saved", ps231, presets)
	require.NoError(t, err)
	require.Len(t, got, 1)

	ta, ok := got[0].(*annotation.TextAnnotation)
	require.True(t, ok)
	assert.Equal(t, annotation.StyleUnderline, ta.Kind)
	assert.Equal(t, annotation.UnderlineWavy, ta.Underline)
	assert.True(t, ta.Range.IsSingleVerse())
	assert.Equal(t, words.Span{Start: 3, End: 8}, words.Span{Start: *ta.StartOffset, End: *ta.EndOffset})
}

func TestTextPresetDefaultsToHighlight(t *testing.T) {
	got, err := RecomputeVirtualAnnotations("Jesus wept.", ps231, []Preset{{ID: "j", Word: "jesus"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, annotation.StyleHighlight, got[0].(*annotation.TextAnnotation).Kind)
}

func TestSharedSurfaceSpawnsPerPreset(t *testing.T) {
	presets := []Preset{
		{ID: "a", Word: "light", Symbol: "sun"},
		{ID: "b", Word: "LIGHT", Style: annotation.StyleTextColor, Color: "gold"},
	}
	m, err := Compile(presets)
	require.NoError(t, err)

	got := m.Match("Let there be light", ps231)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Preset())
	assert.Equal(t, "b", got[1].Preset())
}

func TestMultiWordSurfaceLongestWins(t *testing.T) {
	presets := []Preset{
		{ID: "son", Word: "son", Symbol: "dot"},
		{ID: "som", Word: "son of man", Symbol: "star"},
	}
	m, err := Compile(presets)
	require.NoError(t, err)

	hits := m.Scan("the Son of man came")
	require.Len(t, hits, 1)
	assert.Equal(t, "Son of man", hits[0].Text)
}

func TestRejectedLongerMatchKeepsShorterWord(t *testing.T) {
	presets := []Preset{
		{ID: "lord", Word: "Lord", Symbol: "crown"},
		{ID: "lordgod", Word: "Lord God", Symbol: "star"},
	}
	got, err := RecomputeVirtualAnnotations("the Lord Godhead is holy", ps231, presets)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "lord", got[0].Preset())
	assert.Equal(t, VirtualID("lord", ps231, 4), got[0].AnnotationID())

	presets = append(presets, Preset{ID: "god", Word: "God", Symbol: "dot"})
	m, err := Compile(presets)
	require.NoError(t, err)
	hits := m.Scan("the Lord Godhead and God")
	require.Len(t, hits, 2)
	assert.Equal(t, words.Span{Start: 4, End: 8}, hits[0].Span)
	assert.Equal(t, words.Span{Start: 21, End: 24}, hits[1].Span)
}

func TestStopWordSurfacesSkipped(t *testing.T) {
	m, err := Compile([]Preset{{ID: "the", Word: "the", Symbol: "x"}})
	require.NoError(t, err)
	assert.Empty(t, m.Match("the LORD the God", ps231))

	m, err = Compile([]Preset{{ID: "the", Word: "the", Symbol: "x", AllowStopWords: true}})
	require.NoError(t, err)
	assert.Len(t, m.Match("the LORD the God", ps231), 2)
}

func TestCompileValidation(t *testing.T) {
	_, err := Compile([]Preset{{ID: "", Word: "x"}})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = Compile([]Preset{{ID: "x", Word: " ,. "}})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = Compile([]Preset{{ID: "x", Word: "a"}, {ID: "x", Word: "b"}})
	assert.ErrorIs(t, err, ErrInvalidPreset)

	_, err = Compile([]Preset{{ID: "x", Word: "love", Style: "bold"}})
	assert.ErrorIs(t, err, ErrInvalidPreset)
}

func TestEmptyMatcher(t *testing.T) {
	m, err := Compile(nil)
	require.NoError(t, err)
	assert.Nil(t, m.Match("anything at all", ps231))
}
