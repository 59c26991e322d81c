package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

const genesis = "In the beginning God created the heavens and the earth."

var (
	gen11  = annotation.VerseRef{Book: "Gen", Chapter: 1, Verse: 1}
	deity  = keyword.Preset{ID: "deity", Word: "God", Symbol: "crown"}
	heaven = keyword.Preset{ID: "heaven", Word: "heavens", Style: annotation.StyleHighlight}
)

func TestKeyForStableAndSensitive(t *testing.T) {
	k1, err := KeyFor(gen11, genesis, "KJV", []keyword.Preset{deity, heaven})
	require.NoError(t, err)
	k2, err := KeyFor(gen11, genesis, "KJV", []keyword.Preset{heaven, deity})
	require.NoError(t, err)
	assert.Equal(t, k1, k2, "preset order does not matter")
	assert.Len(t, string(k1), 64)

	variants := []struct {
		name string
		ref  annotation.VerseRef
		text string
		tr   string
		ps   []keyword.Preset
	}{
		{"text", gen11, genesis + " ", "KJV", []keyword.Preset{deity, heaven}},
		{"translation", gen11, genesis, "ESV", []keyword.Preset{deity, heaven}},
		{"verse", annotation.VerseRef{Book: "Gen", Chapter: 1, Verse: 2}, genesis, "KJV", []keyword.Preset{deity, heaven}},
		{"presets", gen11, genesis, "KJV", []keyword.Preset{deity}},
	}
	for _, v := range variants {
		k, err := KeyFor(v.ref, v.text, v.tr, v.ps)
		require.NoError(t, err)
		assert.NotEqual(t, k1, k, v.name)
	}
}

func TestVirtualHitAndMiss(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)

	presets := []keyword.Preset{deity}
	first, hit, err := c.Virtual(gen11, genesis, "KJV", presets)
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first, 1)

	second, hit, err := c.Virtual(gen11, genesis, "KJV", presets)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)

	// Changing the preset set is a different entry.
	_, hit, err = c.Virtual(gen11, genesis, "KJV", []keyword.Preset{deity, heaven})
	require.NoError(t, err)
	assert.False(t, hit)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(2), st.Misses)
	assert.Equal(t, 2, st.Len)
}

func TestVirtualInvalidPresets(t *testing.T) {
	c, err := New(1)
	require.NoError(t, err)
	_, _, err = c.Virtual(gen11, genesis, "KJV", []keyword.Preset{{ID: "x"}})
	assert.ErrorIs(t, err, keyword.ErrInvalidPreset)
	assert.Equal(t, 0, c.Stats().Len)
}

func TestEvictionAndPurge(t *testing.T) {
	c, err := New(1)
	require.NoError(t, err)

	c.Add("a", nil)
	c.Add("b", nil)
	_, ok := c.Get("a")
	assert.False(t, ok, "evicted")
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Stats().Len)
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}
