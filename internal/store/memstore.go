package store

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

// MemStore is an in-memory implementation of Storer for testing.
type MemStore struct {
	mu       sync.RWMutex
	texts    map[string]*annotation.TextAnnotation
	symbols  map[string]*annotation.SymbolAnnotation
	notes    map[string]*Note
	headings map[string]*Heading
	presets  map[string]*keyword.Preset
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		texts:    make(map[string]*annotation.TextAnnotation),
		symbols:  make(map[string]*annotation.SymbolAnnotation),
		notes:    make(map[string]*Note),
		headings: make(map[string]*Heading),
		presets:  make(map[string]*keyword.Preset),
	}
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Text annotations
// =============================================================================

func (s *MemStore) UpsertTextAnnotation(a *annotation.TextAnnotation) error {
	if err := validateText(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.texts[a.ID]; ok {
		a.CreatedAt = old.CreatedAt
	}
	s.texts[a.ID] = cloneText(a)
	return nil
}

func (s *MemStore) GetTextAnnotation(id string) (*annotation.TextAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.texts[id]; ok {
		return cloneText(a), nil
	}
	return nil, nil
}

func (s *MemStore) ListTextAnnotations(ref annotation.VerseRef) ([]*annotation.TextAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*annotation.TextAnnotation
	for _, a := range s.texts {
		if ref.Book == "" || a.Range.Contains(ref) {
			result = append(result, cloneText(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return byCreation(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

// =============================================================================
// Symbol annotations
// =============================================================================

func (s *MemStore) UpsertSymbolAnnotation(a *annotation.SymbolAnnotation) error {
	if err := validateSymbol(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.symbols[a.ID]; ok {
		a.CreatedAt = old.CreatedAt
	}
	s.symbols[a.ID] = cloneSymbol(a)
	return nil
}

func (s *MemStore) GetSymbolAnnotation(id string) (*annotation.SymbolAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.symbols[id]; ok {
		return cloneSymbol(a), nil
	}
	return nil, nil
}

func (s *MemStore) ListSymbolAnnotations(ref annotation.VerseRef) ([]*annotation.SymbolAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*annotation.SymbolAnnotation
	for _, a := range s.symbols {
		if ref.Book == "" || a.Ref == ref {
			result = append(result, cloneSymbol(a))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return byCreation(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *MemStore) DeleteAnnotation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.texts, id)
	delete(s.symbols, id)
	return nil
}

func (s *MemStore) CountAnnotations() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts) + len(s.symbols), nil
}

// =============================================================================
// Notes
// =============================================================================

func (s *MemStore) UpsertNote(note *Note) error {
	if err := validateNote(note); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.notes[note.ID]; ok {
		note.CreatedAt = old.CreatedAt
	}
	copy := *note
	s.notes[note.ID] = &copy
	return nil
}

func (s *MemStore) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if note, ok := s.notes[id]; ok {
		copy := *note
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notes, id)
	return nil
}

func (s *MemStore) ListNotes(ref annotation.VerseRef) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Note
	for _, note := range s.notes {
		if ref.Book == "" || note.Range.Contains(ref) {
			copy := *note
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return byCreation(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

func (s *MemStore) CountNotes() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes), nil
}

// =============================================================================
// Headings
// =============================================================================

func (s *MemStore) UpsertHeading(h *Heading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *h
	s.headings[h.ID] = &copy
	return nil
}

func (s *MemStore) GetHeading(id string) (*Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.headings[id]; ok {
		copy := *h
		return &copy, nil
	}
	return nil, nil
}

func (s *MemStore) DeleteHeading(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.headings, id)
	return nil
}

func (s *MemStore) ListHeadings(book string, chapter int) ([]*Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Heading
	for _, h := range s.headings {
		if book == "" || (h.Ref.Book == book && (chapter == 0 || h.Ref.Chapter == chapter)) {
			copy := *h
			result = append(result, &copy)
		}
	}
	// Sort by position in the book
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Ref, result[j].Ref
		if a.Book != b.Book {
			return a.Book < b.Book
		}
		if a.Ordinal() != b.Ordinal() {
			return a.Ordinal() < b.Ordinal()
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// Presets
// =============================================================================

func (s *MemStore) UpsertPreset(p *keyword.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presets[p.ID] = clonePreset(p)
	return nil
}

func (s *MemStore) GetPreset(id string) (*keyword.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.presets[id]; ok {
		return clonePreset(p), nil
	}
	return nil, nil
}

func (s *MemStore) DeletePreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.presets, id)
	return nil
}

func (s *MemStore) ListPresets() ([]*keyword.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*keyword.Preset, 0, len(s.presets))
	for _, p := range s.presets {
		result = append(result, clonePreset(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// Helpers
// =============================================================================

func byCreation(at1 int64, id1 string, at2 int64, id2 string) bool {
	if at1 != at2 {
		return at1 < at2
	}
	return id1 < id2
}

// ToJSON converts a store model to JSON bytes.
func ToJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// FromJSON parses JSON bytes into a store model.
func FromJSON[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Compile-time interface check
var _ Storer = (*MemStore)(nil)
