package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"

	"github.com/example/duosync/pkg/models"
)

// ModelRepository handles database operations for note models
type ModelRepository struct {
	db  *sqlx.DB
	ids *snowflake.Node
	sb  sq.StatementBuilderType
}

// NewModelRepository creates a new repository instance
func NewModelRepository(db *sqlx.DB, ids *snowflake.Node) *ModelRepository {
	return &ModelRepository{db: db, ids: ids, sb: builder(db)}
}

type modelRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Fields    string    `db:"fields"`
	Templates string    `db:"templates"`
	CreatedAt time.Time `db:"created_at"`
}

// ByName returns the model with the given name, or nil if there is none
func (r *ModelRepository) ByName(ctx context.Context, name string) (*models.NoteModel, error) {
	query, args, err := r.sb.
		Select("id", "name", "fields", "templates", "created_at").
		From("note_models").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var row modelRow
	err = r.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}

	m := &models.NoteModel{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
	if err := json.Unmarshal([]byte(row.Fields), &m.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode fields of model %q: %w", row.Name, err)
	}
	if err := json.Unmarshal([]byte(row.Templates), &m.Templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates of model %q: %w", row.Name, err)
	}
	return m, nil
}

// Create inserts a new model and sets its ID
func (r *ModelRepository) Create(ctx context.Context, m *models.NoteModel) error {
	if m.Name == "" || len(m.Fields) == 0 {
		return fmt.Errorf("model needs a name and at least one field")
	}
	fields, err := json.Marshal(m.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode fields: %w", err)
	}
	templates, err := json.Marshal(m.Templates)
	if err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}

	id := r.ids.Generate().Int64()
	now := time.Now().UTC()
	query, args, err := r.sb.
		Insert("note_models").
		Columns("id", "name", "fields", "templates", "created_at").
		Values(id, m.Name, string(fields), string(templates), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	m.ID = id
	m.CreatedAt = now
	return nil
}
