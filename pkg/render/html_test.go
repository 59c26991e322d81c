package render

import (
	"strings"
	"testing"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/ranges"
	"github.com/kittclouds/biblemarker/pkg/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const genesis = "In the beginning God created the heavens and the earth."

var gen11 = annotation.VerseRef{Book: "Gen", Chapter: 1, Verse: 1}

func build(t *testing.T, text string, as ...annotation.Annotation) []segment.TextSegment {
	t.Helper()
	return segment.Segment(text, ranges.Build(text, gen11, as))
}

func TestRenderPlainVerse(t *testing.T) {
	out, err := New(nil).String(build(t, genesis), annotation.Decorations{})
	require.NoError(t, err)
	assert.Equal(t, `<span class="verse">`+genesis+`</span>`, out)
}

func TestRenderStyledAndSymbol(t *testing.T) {
	h := &annotation.TextAnnotation{
		ID: "h", CollectionID: "default", Range: annotation.Single(gen11),
		Location: annotation.AtWords(3, 3), Kind: annotation.StyleHighlight, Color: "yellow",
	}
	s := &annotation.SymbolAnnotation{
		ID: "s", CollectionID: "default", Ref: gen11, Symbol: "crown", Color: "gold",
		Position: annotation.PositionCenter, Location: annotation.AtWords(9, 9),
	}

	out, err := New(map[string]string{"crown": "♔"}).String(build(t, genesis, h, s), annotation.Decorations{})
	require.NoError(t, err)

	want := `<span class="verse">In the beginning ` +
		`<span class="annotation" style="background-color: yellow" data-ids="h">God</span>` +
		` created the heavens and the ` +
		`<span class="symbol" data-symbol="crown" style="color: gold">♔</span>earth.</span>`
	assert.Equal(t, want, out)
}

func TestRenderDecorationsOutsideText(t *testing.T) {
	before := &annotation.SymbolAnnotation{ID: "b", Ref: gen11, Symbol: "star", Position: annotation.PositionBefore}
	after := &annotation.SymbolAnnotation{ID: "a", Ref: gen11, Symbol: "heart", Position: annotation.PositionAfter}
	dec := annotation.VerseDecorations([]*annotation.SymbolAnnotation{before, after}, gen11)

	out, err := New(nil).String(build(t, "Jesus wept."), dec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<span class="verse"><span class="symbol decoration before" data-symbol="star">star</span>Jesus wept.`))
	assert.True(t, strings.HasSuffix(out, `<span class="symbol decoration after" data-symbol="heart">heart</span></span>`))
}

func TestRenderedTextMatchesVerse(t *testing.T) {
	segs := build(t, genesis,
		&annotation.TextAnnotation{ID: "u", Range: annotation.Single(gen11), Location: annotation.AtWords(0, 4), Kind: annotation.StyleUnderline},
		&annotation.SymbolAnnotation{ID: "s", Ref: gen11, Symbol: "dot", Position: annotation.PositionCenter, Location: annotation.AtWords(6, 6)},
	)
	n := New(map[string]string{"dot": ""}).Node(segs, annotation.Decorations{})

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	assert.Equal(t, genesis, b.String())
}
