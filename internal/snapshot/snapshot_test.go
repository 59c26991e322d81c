package snapshot

import (
	"testing"
	"time"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

var (
	gen11 = annotation.VerseRef{Book: "Gen", Chapter: 1, Verse: 1}
	john  = annotation.VerseRef{Book: "John", Chapter: 11, Verse: 35}
)

func seed(t *testing.T, st store.Storer) {
	t.Helper()
	require.NoError(t, st.UpsertTextAnnotation(&annotation.TextAnnotation{
		ID: "t1", CollectionID: "default", Range: annotation.Single(gen11),
		Location: annotation.AtWords(3, 3), Kind: annotation.StyleHighlight, CreatedAt: 1,
	}))
	require.NoError(t, st.UpsertTextAnnotation(&annotation.TextAnnotation{
		ID: "t2", CollectionID: "default", Range: annotation.Single(john),
		Location: annotation.AtChars(0, 5), Kind: annotation.StyleUnderline,
		Underline: annotation.UnderlineWavy, CreatedAt: 2,
	}))
	require.NoError(t, st.UpsertSymbolAnnotation(&annotation.SymbolAnnotation{
		ID: "s1", CollectionID: "default", Ref: gen11, Symbol: "star", Position: annotation.PositionAfter, CreatedAt: 3,
	}))
	require.NoError(t, st.UpsertNote(&store.Note{ID: "n1", Range: annotation.Single(john), Content: "shortest verse"}))
	require.NoError(t, st.UpsertHeading(&store.Heading{ID: "h1", Ref: gen11, Text: "The Creation"}))
	require.NoError(t, st.UpsertPreset(&keyword.Preset{ID: "deity", Word: "God", Symbol: "crown"}))
}

func TestExportImportRoundTrip(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)

	src := store.NewMemStore()
	seed(t, src)

	stats, err := Export(fsys, "sync/"+DefaultFile, src)
	require.NoError(t, err)
	assert.Equal(t, Stats{TextAnnotations: 2, SymbolAnnotations: 1, Notes: 1, Headings: 1, Presets: 1}, stats)

	dst := store.NewMemStore()
	got, err := Import(fsys, "sync/"+DefaultFile, dst)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	t2, err := dst.GetTextAnnotation("t2")
	require.NoError(t, err)
	require.NotNil(t, t2)
	assert.Equal(t, annotation.UnderlineWavy, t2.Underline)
	assert.Equal(t, 5, *t2.EndOffset)
	assert.False(t, t2.HasWords())

	s1, err := dst.GetSymbolAnnotation("s1")
	require.NoError(t, err)
	require.NotNil(t, s1)
	assert.True(t, s1.IsLegacyDecoration())

	p, err := dst.GetPreset("deity")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "crown", p.Symbol)
}

func TestImportIsIdempotent(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	st := store.NewMemStore()
	seed(t, st)

	_, err = Export(fsys, DefaultFile, st)
	require.NoError(t, err)
	_, err = Import(fsys, DefaultFile, st)
	require.NoError(t, err)

	n, err := st.CountAnnotations()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCollectStampsVersion(t *testing.T) {
	st := store.NewMemStore()
	seed(t, st)
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))

	doc, err := Collect(st, now)
	require.NoError(t, err)
	assert.Equal(t, Version, doc.Version)
	assert.True(t, doc.ExportedAt.Equal(now))
	assert.Equal(t, time.UTC, doc.ExportedAt.Location())
	require.Len(t, doc.TextAnnotations, 2)
	assert.Equal(t, "t1", doc.TextAnnotations[0].ID)
}

func TestImportRejectsNewerVersion(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	require.NoError(t, hackpadfs.WriteFullFile(fsys, DefaultFile, []byte(`{"version": 99}`), 0o644))

	_, err = Import(fsys, DefaultFile, store.NewMemStore())
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestImportMissingAndCorrupt(t *testing.T) {
	fsys, err := mem.NewFS()
	require.NoError(t, err)

	_, err = Import(fsys, "missing.json", store.NewMemStore())
	assert.Error(t, err)

	require.NoError(t, hackpadfs.WriteFullFile(fsys, "bad.json", []byte(`{not json`), 0o644))
	_, err = Import(fsys, "bad.json", store.NewMemStore())
	assert.Error(t, err)
}

func TestImportRejectsVirtualAnnotations(t *testing.T) {
	doc := &Document{
		Version: Version,
		TextAnnotations: []*annotation.TextAnnotation{{
			ID: "virtual:deity:Gen.1.1:17", Range: annotation.Single(gen11),
			Location: annotation.AtChars(17, 20), Kind: annotation.StyleHighlight,
		}},
	}
	_, err := Apply(store.NewMemStore(), doc)
	assert.ErrorIs(t, err, store.ErrVirtualAnnotation)
}
