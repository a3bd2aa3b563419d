package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/duosync/pkg/models"
)

// FieldSeparator joins note field values in storage
const FieldSeparator = "\x1f"

// lookupChunk bounds the size of IN lists
const lookupChunk = 500

// NoteRepository handles database operations for notes
type NoteRepository struct {
	db  *sqlx.DB
	ids *snowflake.Node
	sb  sq.StatementBuilderType
}

// NewNoteRepository creates a new repository instance
func NewNoteRepository(db *sqlx.DB, ids *snowflake.Node) *NoteRepository {
	return &NoteRepository{db: db, ids: ids, sb: builder(db)}
}

type noteRow struct {
	ID        int64     `db:"id"`
	GUID      string    `db:"guid"`
	ModelID   int64     `db:"model_id"`
	DeckID    int64     `db:"deck_id"`
	Fields    string    `db:"fields"`
	Tags      string    `db:"tags"`
	CreatedAt time.Time `db:"created_at"`
}

func (row noteRow) toNote() models.Note {
	return models.Note{
		ID:        row.ID,
		GUID:      row.GUID,
		ModelID:   row.ModelID,
		DeckID:    row.DeckID,
		Fields:    SplitFields(row.Fields),
		Tags:      strings.Fields(row.Tags),
		CreatedAt: row.CreatedAt,
	}
}

// JoinFields encodes field values for storage
func JoinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}

// SplitFields decodes stored field values
func SplitFields(s string) []string {
	return strings.Split(s, FieldSeparator)
}

// joinTags encodes tags space separated with a leading and trailing space, so a single
// tag can be matched with LIKE '% tag %'
func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ") + " "
}

func tagPattern(tag string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "% " + r.Replace(strings.ToLower(tag)) + " %"
}

func tagFilter(tag string) sq.Sqlizer {
	return sq.Expr(`LOWER(tags) LIKE ? ESCAPE '\'`, tagPattern(tag))
}

// Create inserts a new note and sets its ID, GUID and CreatedAt
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if len(note.Fields) == 0 {
		return fmt.Errorf("note has no fields")
	}
	for _, t := range note.Tags {
		if t == "" || strings.ContainsAny(t, " \t\n") {
			return fmt.Errorf("invalid tag %q", t)
		}
	}

	id := r.ids.Generate().Int64()
	guid := uuid.NewString()
	now := time.Now().UTC()

	query, args, err := r.sb.
		Insert("notes").
		Columns("id", "guid", "model_id", "deck_id", "fields", "sort_field", "tags", "created_at").
		Values(id, guid, note.ModelID, note.DeckID, JoinFields(note.Fields), note.Fields[0], joinTags(note.Tags), now).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	note.ID = id
	note.GUID = guid
	note.CreatedAt = now
	return nil
}

// FindByTag returns ids of notes carrying tag (case-insensitive), oldest first
func (r *NoteRepository) FindByTag(ctx context.Context, tag string) ([]int64, error) {
	query, args, err := r.sb.
		Select("id").
		From("notes").
		Where(tagFilter(tag)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find notes by tag: %w", err)
	}
	return ids, nil
}

// FieldValues returns the field values of the given notes, in the order of ids.
// Unknown ids are skipped.
func (r *NoteRepository) FieldValues(ctx context.Context, ids []int64) ([][]string, error) {
	byID := make(map[int64]string, len(ids))

	for start := 0; start < len(ids); start += lookupChunk {
		end := min(start+lookupChunk, len(ids))

		query, args, err := r.sb.
			Select("id", "fields").
			From("notes").
			Where(sq.Eq{"id": ids[start:end]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build query: %w", err)
		}

		var rows []struct {
			ID     int64  `db:"id"`
			Fields string `db:"fields"`
		}
		if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("failed to read note fields: %w", err)
		}
		for _, row := range rows {
			byID[row.ID] = row.Fields
		}
	}

	values := make([][]string, 0, len(ids))
	for _, id := range ids {
		if flds, ok := byID[id]; ok {
			values = append(values, SplitFields(flds))
		}
	}
	return values, nil
}

// ListByTag returns notes carrying tag, oldest first
func (r *NoteRepository) ListByTag(ctx context.Context, tag string) ([]models.Note, error) {
	query, args, err := r.sb.
		Select("id", "guid", "model_id", "deck_id", "fields", "tags", "created_at").
		From("notes").
		Where(tagFilter(tag)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []noteRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	notes := make([]models.Note, len(rows))
	for i, row := range rows {
		notes[i] = row.toNote()
	}
	return notes, nil
}

// Count returns the number of notes
func (r *NoteRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM notes"); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return n, nil
}
