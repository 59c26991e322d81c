// Package selection resolves a free-text selection inside a rendered verse to
// stable word-index coordinates in the verse's canonical text.
package selection

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/kittclouds/biblemarker/pkg/words"
)

// Scoring constants. Overlap status dominates distance as long as the
// distance bonus (at most DistanceWeight) stays below OverlapWeight.
const (
	OverlapWeight  = 1000.0
	DistanceWeight = 100.0
)

// Request is the plain-data selection triple plus the word ranges already
// annotated in the same verse.
type Request struct {
	// Canonical is the verse's plain text.
	Canonical string
	// Selected is the raw selected string from the rendering surface.
	Selected string
	// Preceding is the text before the selection on the rendering surface.
	// It may contain inline decorations and is only a position hint.
	Preceding string
	// Existing are word ranges of annotations already placed on this verse.
	Existing []words.WordSpan
}

// Candidate is one occurrence of the selected phrase and its score.
type Candidate struct {
	Start int
	Score float64
}

// Resolve returns the best word range for the selection, or false when the
// selected words do not occur in the canonical text.
func Resolve(req Request) (words.WordSpan, bool) {
	span, _, ok := Explain(req)
	return span, ok
}

// Explain is Resolve that also returns the scored candidates in input order.
func Explain(req Request) (words.WordSpan, []Candidate, bool) {
	selected := words.NormalizeAll(words.Tokenize(words.TrimToWord(req.Selected)))
	if len(selected) == 0 {
		return words.WordSpan{}, nil, false
	}
	canonical := words.NormalizeAll(words.Tokenize(req.Canonical))

	starts := findCandidates(canonical, selected)
	switch len(starts) {
	case 0:
		return words.WordSpan{}, nil, false
	case 1:
		c := []Candidate{{Start: starts[0]}}
		return spanAt(starts[0], len(selected)), c, true
	}

	occupied := occupiedWords(req.Existing, len(canonical))
	approx := words.Count(req.Preceding)

	cands := make([]Candidate, len(starts))
	for i, s := range starts {
		cands[i] = Candidate{
			Start: s,
			Score: score(s, len(selected), approx, occupied),
		}
	}

	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return spanAt(ranked[0].Start, len(selected)), cands, true
}

// findCandidates returns every start index where the selected sequence
// matches the canonical sequence element-wise.
func findCandidates(canonical, selected []string) []int {
	var out []int
	for i := 0; i+len(selected) <= len(canonical); i++ {
		match := true
		for k, w := range selected {
			if canonical[i+k] != w {
				match = false
				break
			}
		}
		if match {
			out = append(out, i)
		}
	}
	return out
}

func score(start, length, approx int, occupied *roaring.Bitmap) float64 {
	penalty := OverlapWeight
	for i := start; i < start+length; i++ {
		if occupied.Contains(uint32(i)) {
			penalty = -OverlapWeight
			break
		}
	}
	dist := start - approx
	if dist < 0 {
		dist = -dist
	}
	return penalty + DistanceWeight/float64(1+dist)
}

// occupiedWords marks the words covered by existing spans. Spans are clipped
// to the n words of the verse; ones entirely outside it are ignored.
func occupiedWords(existing []words.WordSpan, n int) *roaring.Bitmap {
	bm := roaring.New()
	for _, e := range existing {
		if e.Start < 0 || e.End < e.Start || e.Start >= n {
			continue
		}
		end := min(e.End, n-1)
		bm.AddRange(uint64(e.Start), uint64(end)+1)
	}
	return bm
}

func spanAt(start, n int) words.WordSpan {
	return words.WordSpan{Start: start, End: start + n - 1}
}
