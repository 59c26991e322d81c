package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/kittclouds/biblemarker/pkg/annotation"
	"github.com/kittclouds/biblemarker/pkg/keyword"
)

// SQLiteStore is the SQLite-backed data store.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
// Thread-safe for concurrent WASM callbacks.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines all tables. Verse ranges are stored with ordinals
// (chapter*1000+verse) so "ranges containing a verse" is an index scan.
const schema = `
CREATE TABLE IF NOT EXISTS text_annotations (
    id TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    book TEXT NOT NULL,
    start_chapter INTEGER NOT NULL,
    start_verse INTEGER NOT NULL,
    end_chapter INTEGER NOT NULL,
    end_verse INTEGER NOT NULL,
    start_ord INTEGER NOT NULL,
    end_ord INTEGER NOT NULL,
    start_word INTEGER,
    end_word INTEGER,
    start_offset INTEGER,
    end_offset INTEGER,
    kind TEXT NOT NULL,
    color TEXT,
    underline_style TEXT,
    preset_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_text_verse ON text_annotations(book, start_ord, end_ord);

CREATE TABLE IF NOT EXISTS symbol_annotations (
    id TEXT PRIMARY KEY,
    collection_id TEXT NOT NULL,
    book TEXT NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    symbol TEXT NOT NULL,
    color TEXT,
    position TEXT NOT NULL,
    start_word INTEGER,
    end_word INTEGER,
    start_offset INTEGER,
    end_offset INTEGER,
    preset_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_symbol_verse ON symbol_annotations(book, chapter, verse);

CREATE TABLE IF NOT EXISTS notes (
    id TEXT PRIMARY KEY,
    book TEXT NOT NULL,
    start_chapter INTEGER NOT NULL,
    start_verse INTEGER NOT NULL,
    end_chapter INTEGER NOT NULL,
    end_verse INTEGER NOT NULL,
    start_ord INTEGER NOT NULL,
    end_ord INTEGER NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_verse ON notes(book, start_ord, end_ord);

CREATE TABLE IF NOT EXISTS headings (
    id TEXT PRIMARY KEY,
    book TEXT NOT NULL,
    chapter INTEGER NOT NULL,
    verse INTEGER NOT NULL,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_headings_chapter ON headings(book, chapter);

-- Presets are stored whole as JSON; word is kept for listing.
CREATE TABLE IF NOT EXISTS presets (
    id TEXT PRIMARY KEY,
    word TEXT NOT NULL,
    data TEXT NOT NULL
);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would be a separate database.
	db.SetMaxOpenConns(1)

	// Create schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// =============================================================================
// Text annotations
// =============================================================================

const textColumns = `id, collection_id, book, start_chapter, start_verse, end_chapter, end_verse,
	start_word, end_word, start_offset, end_offset, kind, color, underline_style, preset_id,
	created_at, updated_at`

// UpsertTextAnnotation inserts or updates a text annotation.
func (s *SQLiteStore) UpsertTextAnnotation(a *annotation.TextAnnotation) error {
	if err := validateText(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := a.Range
	_, err := s.db.Exec(`
		INSERT INTO text_annotations (id, collection_id, book, start_chapter, start_verse,
			end_chapter, end_verse, start_ord, end_ord, start_word, end_word, start_offset,
			end_offset, kind, color, underline_style, preset_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_id = excluded.collection_id,
			book = excluded.book,
			start_chapter = excluded.start_chapter,
			start_verse = excluded.start_verse,
			end_chapter = excluded.end_chapter,
			end_verse = excluded.end_verse,
			start_ord = excluded.start_ord,
			end_ord = excluded.end_ord,
			start_word = excluded.start_word,
			end_word = excluded.end_word,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			kind = excluded.kind,
			color = excluded.color,
			underline_style = excluded.underline_style,
			preset_id = excluded.preset_id,
			updated_at = excluded.updated_at
	`, a.ID, a.CollectionID, r.Start.Book, r.Start.Chapter, r.Start.Verse,
		r.End.Chapter, r.End.Verse, r.Start.Ordinal(), r.End.Ordinal(),
		a.StartWordIndex, a.EndWordIndex, a.StartOffset, a.EndOffset,
		string(a.Kind), a.Color, string(a.Underline), a.PresetID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert text annotation %s: %w", a.ID, err)
	}
	return nil
}

func scanText(row rowScanner) (*annotation.TextAnnotation, error) {
	var a annotation.TextAnnotation
	var kind, underline string
	var sw, ew, so, eo sql.NullInt64

	err := row.Scan(
		&a.ID, &a.CollectionID, &a.Range.Start.Book, &a.Range.Start.Chapter, &a.Range.Start.Verse,
		&a.Range.End.Chapter, &a.Range.End.Verse,
		&sw, &ew, &so, &eo, &kind, &a.Color, &underline, &a.PresetID,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Range.End.Book = a.Range.Start.Book
	a.Kind = annotation.StyleKind(kind)
	a.Underline = annotation.UnderlineStyle(underline)
	a.Location = location(sw, ew, so, eo)
	return &a, nil
}

// GetTextAnnotation retrieves a text annotation by ID.
func (s *SQLiteStore) GetTextAnnotation(id string) (*annotation.TextAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanText(s.db.QueryRow(`SELECT `+textColumns+` FROM text_annotations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListTextAnnotations returns the annotations whose range contains ref.
func (s *SQLiteStore) ListTextAnnotations(ref annotation.VerseRef) ([]*annotation.TextAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if ref.Book != "" {
		rows, err = s.db.Query(`SELECT `+textColumns+` FROM text_annotations
			WHERE book = ? AND start_ord <= ? AND end_ord >= ?
			ORDER BY created_at, id`, ref.Book, ref.Ordinal(), ref.Ordinal())
	} else {
		rows, err = s.db.Query(`SELECT ` + textColumns + ` FROM text_annotations ORDER BY created_at, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*annotation.TextAnnotation
	for rows.Next() {
		a, err := scanText(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// =============================================================================
// Symbol annotations
// =============================================================================

const symbolColumns = `id, collection_id, book, chapter, verse, symbol, color, position,
	start_word, end_word, start_offset, end_offset, preset_id, created_at, updated_at`

// UpsertSymbolAnnotation inserts or updates a symbol annotation.
func (s *SQLiteStore) UpsertSymbolAnnotation(a *annotation.SymbolAnnotation) error {
	if err := validateSymbol(a); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO symbol_annotations (id, collection_id, book, chapter, verse, symbol, color,
			position, start_word, end_word, start_offset, end_offset, preset_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_id = excluded.collection_id,
			book = excluded.book,
			chapter = excluded.chapter,
			verse = excluded.verse,
			symbol = excluded.symbol,
			color = excluded.color,
			position = excluded.position,
			start_word = excluded.start_word,
			end_word = excluded.end_word,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			preset_id = excluded.preset_id,
			updated_at = excluded.updated_at
	`, a.ID, a.CollectionID, a.Ref.Book, a.Ref.Chapter, a.Ref.Verse, a.Symbol, a.Color,
		string(a.Position), a.StartWordIndex, a.EndWordIndex, a.StartOffset, a.EndOffset,
		a.PresetID, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert symbol annotation %s: %w", a.ID, err)
	}
	return nil
}

func scanSymbol(row rowScanner) (*annotation.SymbolAnnotation, error) {
	var a annotation.SymbolAnnotation
	var position string
	var sw, ew, so, eo sql.NullInt64

	err := row.Scan(
		&a.ID, &a.CollectionID, &a.Ref.Book, &a.Ref.Chapter, &a.Ref.Verse, &a.Symbol, &a.Color,
		&position, &sw, &ew, &so, &eo, &a.PresetID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Position = annotation.SymbolPosition(position)
	a.Location = location(sw, ew, so, eo)
	return &a, nil
}

// GetSymbolAnnotation retrieves a symbol annotation by ID.
func (s *SQLiteStore) GetSymbolAnnotation(id string) (*annotation.SymbolAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanSymbol(s.db.QueryRow(`SELECT `+symbolColumns+` FROM symbol_annotations WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListSymbolAnnotations returns the symbols placed on ref.
func (s *SQLiteStore) ListSymbolAnnotations(ref annotation.VerseRef) ([]*annotation.SymbolAnnotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if ref.Book != "" {
		rows, err = s.db.Query(`SELECT `+symbolColumns+` FROM symbol_annotations
			WHERE book = ? AND chapter = ? AND verse = ?
			ORDER BY created_at, id`, ref.Book, ref.Chapter, ref.Verse)
	} else {
		rows, err = s.db.Query(`SELECT ` + symbolColumns + ` FROM symbol_annotations ORDER BY created_at, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*annotation.SymbolAnnotation
	for rows.Next() {
		a, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// DeleteAnnotation removes a text or symbol annotation by ID.
func (s *SQLiteStore) DeleteAnnotation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM text_annotations WHERE id = ?", id); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM symbol_annotations WHERE id = ?", id)
	return err
}

// CountAnnotations returns the number of stored text and symbol annotations.
func (s *SQLiteStore) CountAnnotations() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM text_annotations) + (SELECT COUNT(*) FROM symbol_annotations)
	`).Scan(&count)
	return count, err
}

// =============================================================================
// Notes
// =============================================================================

// UpsertNote inserts or updates a verse note.
func (s *SQLiteStore) UpsertNote(note *Note) error {
	if err := validateNote(note); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := note.Range
	_, err := s.db.Exec(`
		INSERT INTO notes (id, book, start_chapter, start_verse, end_chapter, end_verse,
			start_ord, end_ord, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book = excluded.book,
			start_chapter = excluded.start_chapter,
			start_verse = excluded.start_verse,
			end_chapter = excluded.end_chapter,
			end_verse = excluded.end_verse,
			start_ord = excluded.start_ord,
			end_ord = excluded.end_ord,
			content = excluded.content,
			updated_at = excluded.updated_at
	`, note.ID, r.Start.Book, r.Start.Chapter, r.Start.Verse, r.End.Chapter, r.End.Verse,
		r.Start.Ordinal(), r.End.Ordinal(), note.Content, note.CreatedAt, note.UpdatedAt)
	return err
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	err := row.Scan(
		&n.ID, &n.Range.Start.Book, &n.Range.Start.Chapter, &n.Range.Start.Verse,
		&n.Range.End.Chapter, &n.Range.End.Verse, &n.Content, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.Range.End.Book = n.Range.Start.Book
	return &n, nil
}

const noteColumns = `id, book, start_chapter, start_verse, end_chapter, end_verse, content, created_at, updated_at`

// GetNote retrieves a note by ID.
func (s *SQLiteStore) GetNote(id string) (*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, err := scanNote(s.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

// DeleteNote removes a note by ID.
func (s *SQLiteStore) DeleteNote(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM notes WHERE id = ?", id)
	return err
}

// ListNotes returns the notes whose range contains ref.
func (s *SQLiteStore) ListNotes(ref annotation.VerseRef) ([]*Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	if ref.Book != "" {
		rows, err = s.db.Query(`SELECT `+noteColumns+` FROM notes
			WHERE book = ? AND start_ord <= ? AND end_ord >= ?
			ORDER BY created_at, id`, ref.Book, ref.Ordinal(), ref.Ordinal())
	} else {
		rows, err = s.db.Query(`SELECT ` + noteColumns + ` FROM notes ORDER BY created_at, id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// CountNotes returns the total number of notes.
func (s *SQLiteStore) CountNotes() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&count)
	return count, err
}

// =============================================================================
// Headings
// =============================================================================

// UpsertHeading inserts or updates a section heading.
func (s *SQLiteStore) UpsertHeading(h *Heading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO headings (id, book, chapter, verse, text, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			book = excluded.book,
			chapter = excluded.chapter,
			verse = excluded.verse,
			text = excluded.text,
			updated_at = excluded.updated_at
	`, h.ID, h.Ref.Book, h.Ref.Chapter, h.Ref.Verse, h.Text, h.CreatedAt, h.UpdatedAt)
	return err
}

func scanHeading(row rowScanner) (*Heading, error) {
	var h Heading
	if err := row.Scan(&h.ID, &h.Ref.Book, &h.Ref.Chapter, &h.Ref.Verse, &h.Text, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetHeading retrieves a heading by ID.
func (s *SQLiteStore) GetHeading(id string) (*Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, err := scanHeading(s.db.QueryRow(`
		SELECT id, book, chapter, verse, text, created_at, updated_at FROM headings WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// DeleteHeading removes a heading by ID.
func (s *SQLiteStore) DeleteHeading(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM headings WHERE id = ?", id)
	return err
}

// ListHeadings returns headings for a book, optionally one chapter, in verse order.
func (s *SQLiteStore) ListHeadings(book string, chapter int) ([]*Heading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows *sql.Rows
	var err error

	const cols = `SELECT id, book, chapter, verse, text, created_at, updated_at FROM headings`
	switch {
	case book == "":
		rows, err = s.db.Query(cols + ` ORDER BY book, chapter, verse, id`)
	case chapter == 0:
		rows, err = s.db.Query(cols+` WHERE book = ? ORDER BY book, chapter, verse, id`, book)
	default:
		rows, err = s.db.Query(cols+` WHERE book = ? AND chapter = ? ORDER BY book, chapter, verse, id`, book, chapter)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headings []*Heading
	for rows.Next() {
		h, err := scanHeading(rows)
		if err != nil {
			return nil, err
		}
		headings = append(headings, h)
	}
	return headings, rows.Err()
}

// =============================================================================
// Presets
// =============================================================================

// UpsertPreset inserts or updates a keyword preset.
func (s *SQLiteStore) UpsertPreset(p *keyword.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO presets (id, word, data) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET word = excluded.word, data = excluded.data
	`, p.ID, p.Word, string(data))
	return err
}

func scanPreset(row rowScanner) (*keyword.Preset, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		return nil, err
	}
	var p keyword.Preset
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	return &p, nil
}

// GetPreset retrieves a preset by ID.
func (s *SQLiteStore) GetPreset(id string) (*keyword.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := scanPreset(s.db.QueryRow(`SELECT data FROM presets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePreset removes a preset by ID.
func (s *SQLiteStore) DeletePreset(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM presets WHERE id = ?", id)
	return err
}

// ListPresets returns every preset ordered by ID.
func (s *SQLiteStore) ListPresets() ([]*keyword.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT data FROM presets ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	presets := []*keyword.Preset{}
	for rows.Next() {
		p, err := scanPreset(rows)
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	return presets, rows.Err()
}

// =============================================================================
// Helpers
// =============================================================================

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func location(sw, ew, so, eo sql.NullInt64) annotation.Location {
	return annotation.Location{
		StartWordIndex: nullInt(sw),
		EndWordIndex:   nullInt(ew),
		StartOffset:    nullInt(so),
		EndOffset:      nullInt(eo),
	}
}

var _ Storer = (*SQLiteStore)(nil)
