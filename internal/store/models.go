// Package store provides persistence for biblemarker: annotations, verse
// notes, section headings and keyword presets.
package store

import (
	"errors"
	"fmt"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

var (
	// ErrVirtualAnnotation rejects annotations without a collection id.
	// Virtual annotations are recomputed on every render and never stored.
	ErrVirtualAnnotation = errors.New("virtual annotations cannot be persisted")

	// ErrInvalidRange rejects annotations whose coordinates or verse range
	// cannot be placed.
	ErrInvalidRange = errors.New("invalid annotation range")
)

// Note is a free-form study note attached to a verse range.
type Note struct {
	ID        string                `json:"id"`
	Range     annotation.VerseRange `json:"range"`
	Content   string                `json:"content"`
	CreatedAt int64                 `json:"createdAt"`
	UpdatedAt int64                 `json:"updatedAt"`
}

// Heading is a user section heading drawn before a verse.
type Heading struct {
	ID        string              `json:"id"`
	Ref       annotation.VerseRef `json:"ref"`
	Text      string              `json:"text"`
	CreatedAt int64               `json:"createdAt"`
	UpdatedAt int64               `json:"updatedAt"`
}

// Storer defines the interface for data persistence.
// This allows swapping between MemStore (testing) and SQLiteStore (production).
//
// List methods take a zero VerseRef (or empty book) to mean "everything".
type Storer interface {
	// Text annotations
	UpsertTextAnnotation(a *annotation.TextAnnotation) error
	GetTextAnnotation(id string) (*annotation.TextAnnotation, error)
	ListTextAnnotations(ref annotation.VerseRef) ([]*annotation.TextAnnotation, error)

	// Symbol annotations
	UpsertSymbolAnnotation(a *annotation.SymbolAnnotation) error
	GetSymbolAnnotation(id string) (*annotation.SymbolAnnotation, error)
	ListSymbolAnnotations(ref annotation.VerseRef) ([]*annotation.SymbolAnnotation, error)

	// Either kind
	DeleteAnnotation(id string) error
	CountAnnotations() (int, error)

	// Notes
	UpsertNote(note *Note) error
	GetNote(id string) (*Note, error)
	DeleteNote(id string) error
	ListNotes(ref annotation.VerseRef) ([]*Note, error)
	CountNotes() (int, error)

	// Headings
	UpsertHeading(h *Heading) error
	GetHeading(id string) (*Heading, error)
	DeleteHeading(id string) error
	ListHeadings(book string, chapter int) ([]*Heading, error)

	// Keyword presets
	UpsertPreset(p *keyword.Preset) error
	GetPreset(id string) (*keyword.Preset, error)
	DeletePreset(id string) error
	ListPresets() ([]*keyword.Preset, error)

	// Lifecycle
	Close() error
}

// =============================================================================
// Validation shared by both backends
// =============================================================================

func validateRange(r annotation.VerseRange) error {
	if r.Start.Book == "" || r.Start.Book != r.End.Book {
		return fmt.Errorf("%w: range %s - %s must stay in one book", ErrInvalidRange, r.Start, r.End)
	}
	if r.End.Ordinal() < r.Start.Ordinal() {
		return fmt.Errorf("%w: range %s - %s is inverted", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

func validateText(a *annotation.TextAnnotation) error {
	if a.CollectionID == "" {
		return fmt.Errorf("%w: %s", ErrVirtualAnnotation, a.ID)
	}
	if err := validateRange(a.Range); err != nil {
		return err
	}
	if !a.HasWords() && !a.HasChars() {
		return fmt.Errorf("%w: %s has no coordinates", ErrInvalidRange, a.ID)
	}
	if !a.Kind.IsValid() {
		return fmt.Errorf("%w: %s has unknown style %q", ErrInvalidRange, a.ID, a.Kind)
	}
	return nil
}

func validateSymbol(a *annotation.SymbolAnnotation) error {
	if a.CollectionID == "" {
		return fmt.Errorf("%w: %s", ErrVirtualAnnotation, a.ID)
	}
	if a.Ref.Book == "" {
		return fmt.Errorf("%w: %s has no verse", ErrInvalidRange, a.ID)
	}
	if a.Position == annotation.PositionCenter && !a.HasWords() && !a.HasChars() {
		return fmt.Errorf("%w: centered symbol %s has no coordinates", ErrInvalidRange, a.ID)
	}
	return nil
}

func validateNote(n *Note) error {
	if err := validateRange(n.Range); err != nil {
		return fmt.Errorf("note %s: %w", n.ID, err)
	}
	return nil
}

// =============================================================================
// Copy helpers
// =============================================================================

func intPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneLocation(l annotation.Location) annotation.Location {
	return annotation.Location{
		StartWordIndex: intPtr(l.StartWordIndex),
		EndWordIndex:   intPtr(l.EndWordIndex),
		StartOffset:    intPtr(l.StartOffset),
		EndOffset:      intPtr(l.EndOffset),
	}
}

func cloneText(a *annotation.TextAnnotation) *annotation.TextAnnotation {
	c := *a
	c.Location = cloneLocation(a.Location)
	return &c
}

func cloneSymbol(a *annotation.SymbolAnnotation) *annotation.SymbolAnnotation {
	c := *a
	c.Location = cloneLocation(a.Location)
	return &c
}

func clonePreset(p *keyword.Preset) *keyword.Preset {
	c := *p
	if p.Variants != nil {
		c.Variants = append([]string(nil), p.Variants...)
	}
	return &c
}
