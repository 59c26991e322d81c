// Package snapshot exports every persisted record to a single JSON document
// on a hackpadfs filesystem and imports it back. The same code serves the
// CLI sync folder (OS filesystem) and the browser host (IndexedDB).
package snapshot

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/hack-pad/hackpadfs"

	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

// Version is the document format written by Export.
const Version = 1

// DefaultFile is the document name inside a sync folder.
const DefaultFile = "biblemarker.json"

// ErrUnsupportedVersion is returned for documents written by a newer format.
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Document is the on-disk export.
type Document struct {
	Version           int                            `json:"version"`
	ExportedAt        time.Time                      `json:"exportedAt"`
	TextAnnotations   []*annotation.TextAnnotation   `json:"textAnnotations"`
	SymbolAnnotations []*annotation.SymbolAnnotation `json:"symbolAnnotations"`
	Notes             []*store.Note                  `json:"notes"`
	Headings          []*store.Heading               `json:"headings"`
	Presets           []*keyword.Preset              `json:"presets"`
}

// Stats counts the records written or read.
type Stats struct {
	TextAnnotations   int `json:"textAnnotations"`
	SymbolAnnotations int `json:"symbolAnnotations"`
	Notes             int `json:"notes"`
	Headings          int `json:"headings"`
	Presets           int `json:"presets"`
}

func (d *Document) stats() Stats {
	return Stats{
		TextAnnotations:   len(d.TextAnnotations),
		SymbolAnnotations: len(d.SymbolAnnotations),
		Notes:             len(d.Notes),
		Headings:          len(d.Headings),
		Presets:           len(d.Presets),
	}
}

// Collect reads everything in st into a document stamped with now.
func Collect(st store.Storer, now time.Time) (*Document, error) {
	var all annotation.VerseRef
	doc := &Document{Version: Version, ExportedAt: now.UTC()}

	var err error
	if doc.TextAnnotations, err = st.ListTextAnnotations(all); err != nil {
		return nil, fmt.Errorf("collect text annotations: %w", err)
	}
	if doc.SymbolAnnotations, err = st.ListSymbolAnnotations(all); err != nil {
		return nil, fmt.Errorf("collect symbol annotations: %w", err)
	}
	if doc.Notes, err = st.ListNotes(all); err != nil {
		return nil, fmt.Errorf("collect notes: %w", err)
	}
	if doc.Headings, err = st.ListHeadings("", 0); err != nil {
		return nil, fmt.Errorf("collect headings: %w", err)
	}
	if doc.Presets, err = st.ListPresets(); err != nil {
		return nil, fmt.Errorf("collect presets: %w", err)
	}
	return doc, nil
}

// Apply upserts every record of doc into st. Records already present are
// overwritten; nothing is deleted.
func Apply(st store.Storer, doc *Document) (Stats, error) {
	if doc.Version > Version {
		return Stats{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}
	for _, a := range doc.TextAnnotations {
		if err := st.UpsertTextAnnotation(a); err != nil {
			return Stats{}, fmt.Errorf("import text annotation %s: %w", a.ID, err)
		}
	}
	for _, a := range doc.SymbolAnnotations {
		if err := st.UpsertSymbolAnnotation(a); err != nil {
			return Stats{}, fmt.Errorf("import symbol annotation %s: %w", a.ID, err)
		}
	}
	for _, n := range doc.Notes {
		if err := st.UpsertNote(n); err != nil {
			return Stats{}, fmt.Errorf("import note %s: %w", n.ID, err)
		}
	}
	for _, h := range doc.Headings {
		if err := st.UpsertHeading(h); err != nil {
			return Stats{}, fmt.Errorf("import heading %s: %w", h.ID, err)
		}
	}
	for _, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return Stats{}, err
		}
		if err := st.UpsertPreset(p); err != nil {
			return Stats{}, fmt.Errorf("import preset %s: %w", p.ID, err)
		}
	}
	return doc.stats(), nil
}

// Export writes the contents of st to name on fsys, creating parent
// directories as needed.
func Export(fsys hackpadfs.FS, name string, st store.Storer) (Stats, error) {
	doc, err := Collect(st, time.Now())
	if err != nil {
		return Stats{}, err
	}
	data, err := store.ToJSON(doc)
	if err != nil {
		return Stats{}, fmt.Errorf("encode snapshot: %w", err)
	}

	if dir := path.Dir(name); dir != "." {
		if err := hackpadfs.MkdirAll(fsys, dir, 0o755); err != nil {
			return Stats{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := hackpadfs.WriteFullFile(fsys, name, data, 0o644); err != nil {
		return Stats{}, fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return doc.stats(), nil
}

// Import reads name from fsys and upserts its records into st.
func Import(fsys hackpadfs.FS, name string, st store.Storer) (Stats, error) {
	data, err := hackpadfs.ReadFile(fsys, name)
	if err != nil {
		return Stats{}, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	doc, err := store.FromJSON[Document](data)
	if err != nil {
		return Stats{}, fmt.Errorf("decode snapshot %s: %w", name, err)
	}
	return Apply(st, doc)
}
