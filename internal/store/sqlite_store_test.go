package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kittclouds/biblemarker/pkg/annotation"
)

// =============================================================================
// File-backed persistence
// =============================================================================

func TestSQLiteStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marks.db")

	s, err := NewSQLiteStoreWithDSN(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	now := time.Now().UnixMilli()
	a := &annotation.TextAnnotation{
		ID:           "persisted",
		CollectionID: "default",
		Range:        annotation.Single(gen11),
		Location:     annotation.AtWords(0, 2),
		Kind:         annotation.StyleTextColor,
		Color:        "purple",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.UpsertTextAnnotation(a); err != nil {
		t.Fatalf("UpsertTextAnnotation failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopen to simulate an application restart
	s2, err := NewSQLiteStoreWithDSN(path)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetTextAnnotation("persisted")
	if err != nil {
		t.Fatalf("GetTextAnnotation failed: %v", err)
	}
	if got == nil {
		t.Fatal("annotation lost across reopen")
	}
	if got.Color != "purple" {
		t.Errorf("Expected color purple, got %s", got.Color)
	}
	if !got.HasWords() || *got.EndWordIndex != 2 {
		t.Errorf("word coordinates not restored: %+v", got.Location)
	}
}

func TestSQLiteStoreMemoryIsolation(t *testing.T) {
	s1, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s1.Close()
	s2, err := NewSQLiteStore()
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s2.Close()

	if err := s1.UpsertHeading(&Heading{ID: "h", Ref: gen11, Text: "Creation"}); err != nil {
		t.Fatalf("UpsertHeading failed: %v", err)
	}
	h, err := s2.GetHeading("h")
	if err != nil {
		t.Fatalf("GetHeading failed: %v", err)
	}
	if h != nil {
		t.Error("in-memory stores must not share data")
	}
}
