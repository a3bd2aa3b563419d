package models

import "time"

// Template is a card template of a note model
type Template struct {
	Name     string `json:"name"`
	Question string `json:"qfmt"`
	Answer   string `json:"afmt"`
}

// NoteModel is a flashcard schema: ordered field names plus card templates
type NoteModel struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Fields    []string   `json:"fields" db:"-"`
	Templates []Template `json:"templates" db:"-"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// FieldIndex returns the position of the named field or -1
func (m *NoteModel) FieldIndex(name string) int {
	for i, f := range m.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// Note is a flashcard record with named fields and tags
type Note struct {
	ID        int64     `json:"id" db:"id"`
	GUID      string    `json:"guid" db:"guid"`
	ModelID   int64     `json:"model_id" db:"model_id"`
	DeckID    int64     `json:"deck_id" db:"deck_id"`
	Fields    []string  `json:"fields" db:"-"`
	Tags      []string  `json:"tags" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Deck is a named collection of notes
type Deck struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	DefaultModelID *int64    `json:"default_model_id" db:"default_model_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
