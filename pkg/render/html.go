// Package render paints verse segments as HTML.
package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/segment"
)

// Renderer turns segments into a <span class="verse"> node tree.
type Renderer struct {
	// Glyphs maps symbol keys to display text. Unknown keys render as the key.
	Glyphs map[string]string
}

// New creates a renderer with the given glyph table.
func New(glyphs map[string]string) *Renderer {
	return &Renderer{Glyphs: glyphs}
}

// Render writes the verse markup. Segment order is render order.
func (r *Renderer) Render(w io.Writer, segs []segment.TextSegment, dec annotation.Decorations) error {
	if err := html.Render(w, r.Node(segs, dec)); err != nil {
		return fmt.Errorf("render verse: %w", err)
	}
	return nil
}

// String is Render into a string.
func (r *Renderer) String(segs []segment.TextSegment, dec annotation.Decorations) (string, error) {
	var b strings.Builder
	if err := r.Render(&b, segs, dec); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Node builds the verse element.
func (r *Renderer) Node(segs []segment.TextSegment, dec annotation.Decorations) *html.Node {
	verse := element("span", attr("class", "verse"))

	for _, s := range dec.Before {
		verse.AppendChild(r.symbol(s, "symbol decoration before"))
	}
	for _, seg := range segs {
		r.appendSegment(verse, seg)
	}
	for _, s := range dec.After {
		verse.AppendChild(r.symbol(s, "symbol decoration after"))
	}
	return verse
}

func (r *Renderer) appendSegment(parent *html.Node, seg segment.TextSegment) {
	if seg.IsPlain() {
		parent.AppendChild(text(seg.Text))
		return
	}
	if len(seg.Symbols) == 0 {
		parent.AppendChild(styled(seg, seg.Text))
		return
	}

	// Glyphs go before the word; punctuation stays outside it.
	lead, word, trail := segment.SplitPunctuation(seg.Text)
	if lead != "" {
		parent.AppendChild(text(lead))
	}
	for _, s := range seg.Symbols {
		parent.AppendChild(r.symbol(s, "symbol"))
	}
	if word != "" {
		if len(seg.Annotations) == 0 {
			parent.AppendChild(text(word))
		} else {
			parent.AppendChild(styled(seg, word))
		}
	}
	if trail != "" {
		parent.AppendChild(text(trail))
	}
}

func (r *Renderer) symbol(s *annotation.SymbolAnnotation, class string) *html.Node {
	attrs := []html.Attribute{attr("class", class), attr("data-symbol", s.Symbol)}
	if s.Color != "" {
		attrs = append(attrs, attr("style", "color: "+s.Color))
	}
	n := element("span", attrs...)
	glyph, ok := r.Glyphs[s.Symbol]
	if !ok {
		glyph = s.Symbol
	}
	n.AppendChild(text(glyph))
	return n
}

func styled(seg segment.TextSegment, content string) *html.Node {
	ids := make([]string, len(seg.Annotations))
	for i, a := range seg.Annotations {
		ids[i] = a.ID
	}
	attrs := []html.Attribute{attr("class", "annotation")}
	if css := seg.Style().CSS(); css != "" {
		attrs = append(attrs, attr("style", css))
	}
	attrs = append(attrs, attr("data-ids", strings.Join(ids, " ")))

	n := element("span", attrs...)
	n.AppendChild(text(content))
	return n
}

// ============================================================================
// Node helpers
// ============================================================================

func element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
