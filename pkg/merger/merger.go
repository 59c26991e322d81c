// Package merger combines persisted annotations with virtual keyword
// annotations for one verse, applying preset-aware precedence.
package merger

import (
	"sort"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/words"
)

// Provenance indicates where an annotation came from
type Provenance string

const (
	ProvenancePersisted Provenance = "persisted" // user-created, stored
	ProvenanceVirtual   Provenance = "virtual"   // keyword preset match
)

// MergeResult contains the surviving annotations and stats about the merge
type MergeResult struct {
	Annotations []annotation.Annotation `json:"annotations"`

	PersistedKept       int `json:"persistedKept"`
	VirtualKept         int `json:"virtualKept"`
	SupersededPersisted int `json:"supersededPersisted"`
	DroppedVirtual      int `json:"droppedVirtual"`
}

// entry is an annotation with its resolved char span.
type entry struct {
	ann        annotation.Annotation
	span       words.Span
	placed     bool
	provenance Provenance
}

// Merge returns the union of surviving persisted and virtual annotations for
// one verse. The output order depends only on the input sets.
func Merge(text string, persisted, virtual []annotation.Annotation) []annotation.Annotation {
	return MergeWithStats(text, persisted, virtual).Annotations
}

// MergeWithStats is Merge with counts of what was kept and dropped.
//
// Precedence, per overlapping (virtual, persisted) pair:
//  1. a persisted annotation overlapped by a virtual one with the same preset
//     id is superseded (stale copy of the preset match);
//  2. a virtual annotation with a preset id beats persisted annotations that
//     have no preset id or a different one. A beaten persisted annotation
//     without a preset id and of the same shape (same style kind, or both
//     symbols) is a legacy duplicate and is dropped; any other renders
//     alongside;
//  3. otherwise the persisted annotation wins and the virtual one is dropped.
func MergeWithStats(text string, persisted, virtual []annotation.Annotation) MergeResult {
	ws := words.Tokenize(text)
	ps := resolveAll(ws, text, persisted, ProvenancePersisted)
	vs := resolveAll(ws, text, virtual, ProvenanceVirtual)

	var result MergeResult

	// Rule 1 runs first so stale persisted copies never shadow a match.
	survivors := make([]entry, 0, len(ps))
	for _, p := range ps {
		if supersededBy(p, vs) {
			result.SupersededPersisted++
			continue
		}
		survivors = append(survivors, p)
	}

	out := make([]entry, 0, len(survivors)+len(vs))
	out = append(out, survivors...)
	for _, v := range vs {
		if blockedBy(v, survivors) {
			result.DroppedVirtual++
			continue
		}
		out = append(out, v)
	}

	sortEntries(out)
	result.Annotations = make([]annotation.Annotation, len(out))
	for i, e := range out {
		result.Annotations[i] = e.ann
		if e.provenance == ProvenanceVirtual {
			result.VirtualKept++
		} else {
			result.PersistedKept++
		}
	}
	return result
}

func resolveAll(ws []words.Word, text string, in []annotation.Annotation, prov Provenance) []entry {
	out := make([]entry, 0, len(in))
	for _, a := range in {
		if a == nil {
			continue
		}
		e := entry{ann: a, provenance: prov}
		// Cross-verse annotations pass through untouched.
		if a.Verses().IsSingleVerse() {
			if res, ok := annotation.Resolve(ws, text, a.Coordinates()); ok {
				e.span = res.Span
				e.placed = true
			}
		}
		out = append(out, e)
	}
	return out
}

func overlaps(a, b entry) bool {
	return a.placed && b.placed && a.span.Overlaps(b.span)
}

func supersededBy(p entry, virtual []entry) bool {
	pp := p.ann.Preset()
	for _, v := range virtual {
		vp := v.ann.Preset()
		if vp == "" || !overlaps(p, v) {
			continue
		}
		if vp == pp || (pp == "" && sameShape(p.ann, v.ann)) {
			return true
		}
	}
	return false
}

// sameShape reports whether two annotations would draw the same decoration.
func sameShape(a, b annotation.Annotation) bool {
	switch x := a.(type) {
	case *annotation.TextAnnotation:
		y, ok := b.(*annotation.TextAnnotation)
		return ok && x.Kind == y.Kind
	case *annotation.SymbolAnnotation:
		_, ok := b.(*annotation.SymbolAnnotation)
		return ok
	}
	return false
}

func blockedBy(v entry, persisted []entry) bool {
	vp := v.ann.Preset()
	for _, p := range persisted {
		if !overlaps(v, p) {
			continue
		}
		pp := p.ann.Preset()
		if vp != "" && pp != vp {
			// Guards against legacy persisted duplicates created before
			// preset matching existed.
			continue
		}
		return true
	}
	return false
}

func sortEntries(es []entry) {
	sort.SliceStable(es, func(i, j int) bool {
		a, b := es[i], es[j]
		if a.placed != b.placed {
			return a.placed
		}
		if a.placed {
			if a.span.Start != b.span.Start {
				return a.span.Start < b.span.Start
			}
			if a.span.End != b.span.End {
				return a.span.End < b.span.End
			}
		}
		if a.provenance != b.provenance {
			return a.provenance == ProvenancePersisted
		}
		return a.ann.AnnotationID() < b.ann.AnnotationID()
	})
}
