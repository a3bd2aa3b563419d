package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"

	"github.com/example/duosync/pkg/models"
)

// DeckRepository handles database operations for decks
type DeckRepository struct {
	db  *sqlx.DB
	ids *snowflake.Node
	sb  sq.StatementBuilderType
}

// NewDeckRepository creates a new repository instance
func NewDeckRepository(db *sqlx.DB, ids *snowflake.Node) *DeckRepository {
	return &DeckRepository{db: db, ids: ids, sb: builder(db)}
}

// GetByName returns the deck with the given name, or nil if there is none
func (r *DeckRepository) GetByName(ctx context.Context, name string) (*models.Deck, error) {
	query, args, err := r.sb.
		Select("id", "name", "default_model_id", "created_at").
		From("decks").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var deck models.Deck
	err = r.db.GetContext(ctx, &deck, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return &deck, nil
}

// GetOrCreate returns the named deck, creating it first if needed
func (r *DeckRepository) GetOrCreate(ctx context.Context, name string) (*models.Deck, error) {
	deck, err := r.GetByName(ctx, name)
	if err != nil || deck != nil {
		return deck, err
	}

	deck = &models.Deck{
		ID:        r.ids.Generate().Int64(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	query, args, err := r.sb.
		Insert("decks").
		Columns("id", "name", "created_at").
		Values(deck.ID, deck.Name, deck.CreatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to create deck: %w", err)
	}
	return deck, nil
}

// SetDefaultModel makes modelID the model new notes of the deck use
func (r *DeckRepository) SetDefaultModel(ctx context.Context, deckID, modelID int64) error {
	query, args, err := r.sb.
		Update("decks").
		Set("default_model_id", modelID).
		Where(sq.Eq{"id": deckID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update deck: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("deck %d not found", deckID)
	}
	return nil
}
