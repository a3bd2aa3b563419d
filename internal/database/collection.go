package database

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"

	"github.com/example/duosync/pkg/models"
)

// DefaultDeck receives notes when no deck was selected
const DefaultDeck = "Default"

// Collection is the flashcard store: models, decks and notes of one database.
// It keeps the selected deck in memory, like a host application session.
type Collection struct {
	db      *sqlx.DB
	Models  *ModelRepository
	Decks   *DeckRepository
	Notes   *NoteRepository
	current *models.Deck
}

// NewCollection wires repositories over db. nodeID identifies this writer in generated ids (0-1023).
func NewCollection(db *sqlx.DB, nodeID int64) (*Collection, error) {
	ids, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &Collection{
		db:     db,
		Models: NewModelRepository(db, ids),
		Decks:  NewDeckRepository(db, ids),
		Notes:  NewNoteRepository(db, ids),
	}, nil
}

// Close closes the database connection
func (c *Collection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Collection) FindNotesByTag(ctx context.Context, tag string) ([]int64, error) {
	return c.Notes.FindByTag(ctx, tag)
}

func (c *Collection) ReadFieldValues(ctx context.Context, noteIDs []int64) ([][]string, error) {
	return c.Notes.FieldValues(ctx, noteIDs)
}

func (c *Collection) ModelByName(ctx context.Context, name string) (*models.NoteModel, error) {
	return c.Models.ByName(ctx, name)
}

func (c *Collection) CreateModel(ctx context.Context, model *models.NoteModel) error {
	return c.Models.Create(ctx, model)
}

// SetDefaultDeckModel selects deck, creating it if needed, and makes model its default
func (c *Collection) SetDefaultDeckModel(ctx context.Context, deck string, model *models.NoteModel) error {
	d, err := c.Decks.GetOrCreate(ctx, deck)
	if err != nil {
		return err
	}
	if err := c.Decks.SetDefaultModel(ctx, d.ID, model.ID); err != nil {
		return err
	}
	id := model.ID
	d.DefaultModelID = &id
	c.current = d
	return nil
}

// CreateNote adds a note of model to the selected deck
func (c *Collection) CreateNote(ctx context.Context, model *models.NoteModel, fields []string, tags []string) (int64, error) {
	if len(fields) != len(model.Fields) {
		return 0, fmt.Errorf("model %q expects %d fields, got %d", model.Name, len(model.Fields), len(fields))
	}
	if c.current == nil {
		d, err := c.Decks.GetOrCreate(ctx, DefaultDeck)
		if err != nil {
			return 0, err
		}
		c.current = d
	}

	note := &models.Note{
		ModelID: model.ID,
		DeckID:  c.current.ID,
		Fields:  fields,
		Tags:    tags,
	}
	if err := c.Notes.Create(ctx, note); err != nil {
		return 0, err
	}
	return note.ID, nil
}

// SelectedDeck returns the deck new notes go to, nil before the first selection
func (c *Collection) SelectedDeck() *models.Deck {
	return c.current
}
