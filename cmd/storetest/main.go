package main

import (
	"fmt"
	"log"

	"github.com/kittclouds/biblemarker/internal/cache"
	"github.com/kittclouds/biblemarker/internal/conductor"
	"github.com/kittclouds/biblemarker/internal/store"
	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

var john = conductor.Verse{
	Ref:  annotation.VerseRef{Book: "John", Chapter: 11, Verse: 35},
	Text: "Jesus wept, and the crowd wondered why.",
}

func main() {
	fmt.Println("Testing MemStore...")
	exercise(store.NewMemStore())

	fmt.Println("\nTesting SQLiteStore...")
	s, err := store.NewSQLiteStore()
	if err != nil {
		log.Fatalf("NewSQLiteStore failed: %v", err)
	}
	exercise(s)

	fmt.Println("\n✅ All tests passed!")
}

func exercise(s store.Storer) {
	defer s.Close()

	vc, err := cache.New(4)
	if err != nil {
		log.Fatalf("cache.New failed: %v", err)
	}
	c := conductor.New(s, vc, "KJV")

	a, err := c.MarkSelection(john, conductor.Capture{Selected: "wept"}, conductor.Mark{})
	if err != nil {
		log.Fatalf("MarkSelection failed: %v", err)
	}
	fmt.Println("  ✓ MarkSelection works")

	got, err := s.GetTextAnnotation(a.AnnotationID())
	if err != nil {
		log.Fatalf("GetTextAnnotation failed: %v", err)
	}
	if got == nil || *got.StartWordIndex != 1 {
		log.Fatalf("GetTextAnnotation returned %+v", got)
	}
	fmt.Println("  ✓ GetTextAnnotation works")

	if err := c.SavePreset(keyword.Preset{ID: "jesus", Word: "Jesus", Symbol: "cross"}); err != nil {
		log.Fatalf("SavePreset failed: %v", err)
	}
	out, err := c.RenderWithStoredPresets(john)
	if err != nil {
		log.Fatalf("RenderVerse failed: %v", err)
	}
	if len(out.Segments) != 4 {
		log.Fatalf("RenderVerse expected 4 segments, got %d", len(out.Segments))
	}
	fmt.Println("  ✓ RenderVerse works")

	count, err := s.CountAnnotations()
	if err != nil {
		log.Fatalf("CountAnnotations failed: %v", err)
	}
	if count != 1 {
		log.Fatalf("CountAnnotations expected 1, got %d", count)
	}
	fmt.Println("  ✓ CountAnnotations works")
}
