package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/duosync/internal/vocab"
)

var _ vocab.Storage = (*Collection)(nil)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect("sqlite3", ":memory:", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := NewCollection(setupTestDB(t), 1)
	require.NoError(t, err)
	return c
}

func TestConnect_FileDatabase(t *testing.T) {
	dir := t.TempDir()

	db, err := Connect("sqlite3", "", dir)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// schema creation is repeatable
	db, err = Connect("sqlite3", "", dir)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM notes"))
	assert.Zero(t, n)
}

func TestConnect_RejectsUnknownDriver(t *testing.T) {
	_, err := Connect("mysql", "x", "")
	require.Error(t, err)

	_, err = Connect("postgres", "", "")
	require.Error(t, err)
}

func TestModelRepository(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()

	missing, err := c.Models.ByName(ctx, "Duolingo Sync")
	require.NoError(t, err)
	assert.Nil(t, missing)

	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.Models.Create(ctx, m))
	require.NotZero(t, m.ID)

	got, err := c.Models.ByName(ctx, "Duolingo Sync")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, vocab.NoteFields, got.Fields)
	assert.Equal(t, m.Templates, got.Templates)

	// names are unique
	require.Error(t, c.Models.Create(ctx, vocab.NewNoteModel("Duolingo Sync")))
}

func TestDeckRepository(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.Models.Create(ctx, m))

	d1, err := c.Decks.GetOrCreate(ctx, "Default")
	require.NoError(t, err)
	d2, err := c.Decks.GetOrCreate(ctx, "Default")
	require.NoError(t, err)
	assert.Equal(t, d1.ID, d2.ID)
	assert.Nil(t, d1.DefaultModelID)

	require.NoError(t, c.Decks.SetDefaultModel(ctx, d1.ID, m.ID))
	got, err := c.Decks.GetByName(ctx, "Default")
	require.NoError(t, err)
	require.NotNil(t, got.DefaultModelID)
	assert.Equal(t, m.ID, *got.DefaultModelID)

	require.Error(t, c.Decks.SetDefaultModel(ctx, 42, m.ID))
}

func TestCollection_NotesByTag(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.CreateModel(ctx, m))
	require.NoError(t, c.SetDefaultDeckModel(ctx, "Default", m))

	id1, err := c.CreateNote(ctx, m, []string{"g1", "m", "cat", "gato", "Spanish"}, []string{"Spanish", "duolingo_sync", "noun"})
	require.NoError(t, err)
	_, err = c.CreateNote(ctx, m, []string{"x1", "", "", "manual", "Spanish"}, []string{"Spanish"})
	require.NoError(t, err)
	id3, err := c.CreateNote(ctx, m, []string{"g2", "", "", "beber", "Spanish"}, []string{"duolingo_sync"})
	require.NoError(t, err)

	ids, err := c.FindNotesByTag(ctx, "duolingo_sync")
	require.NoError(t, err)
	assert.Equal(t, []int64{id1, id3}, ids)

	upper, err := c.FindNotesByTag(ctx, "DUOLINGO_SYNC")
	require.NoError(t, err)
	assert.Equal(t, ids, upper)

	values, err := c.ReadFieldValues(ctx, ids)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []string{"g1", "m", "cat", "gato", "Spanish"}, values[0])
	assert.Equal(t, "g2", values[1][0])

	notes, err := c.Notes.ListByTag(ctx, "noun")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"Spanish", "duolingo_sync", "noun"}, notes[0].Tags)
	assert.NotEmpty(t, notes[0].GUID)
	assert.Equal(t, c.SelectedDeck().ID, notes[0].DeckID)
}

func TestCollection_TagWildcardsAreLiteral(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.CreateModel(ctx, m))

	_, err := c.CreateNote(ctx, m, []string{"a", "", "", "", ""}, []string{"duolingoXsync"})
	require.NoError(t, err)

	ids, err := c.FindNotesByTag(ctx, "duolingo_sync")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCollection_CreateNoteUsesDefaultDeck(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.CreateModel(ctx, m))

	_, err := c.CreateNote(ctx, m, []string{"a", "", "", "", ""}, nil)
	require.NoError(t, err)

	deck, err := c.Decks.GetByName(ctx, DefaultDeck)
	require.NoError(t, err)
	require.NotNil(t, deck)
	assert.Equal(t, deck.ID, c.SelectedDeck().ID)
}

func TestCollection_CreateNoteValidates(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.CreateModel(ctx, m))

	_, err := c.CreateNote(ctx, m, []string{"too", "few"}, nil)
	require.Error(t, err)

	_, err = c.CreateNote(ctx, m, []string{"a", "", "", "", ""}, []string{"two words"})
	require.Error(t, err)
}

func TestNoteRepository_FieldValuesLargeIDList(t *testing.T) {
	c := setupCollection(t)
	ctx := context.Background()
	m := vocab.NewNoteModel("Duolingo Sync")
	require.NoError(t, c.CreateModel(ctx, m))

	const total = lookupChunk + 25
	for i := 0; i < total; i++ {
		_, err := c.CreateNote(ctx, m, []string{"id", "", "", "", ""}, []string{"duolingo_sync"})
		require.NoError(t, err)
	}

	ids, err := c.FindNotesByTag(ctx, "duolingo_sync")
	require.NoError(t, err)
	require.Len(t, ids, total)

	values, err := c.ReadFieldValues(ctx, append(ids, 1))
	require.NoError(t, err)
	assert.Len(t, values, total)

	n, err := c.Notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, n)
}

func TestJoinSplitFields(t *testing.T) {
	fields := []string{"g1", "", "cat; kitty", "gato", "Spanish"}
	assert.Equal(t, fields, SplitFields(JoinFields(fields)))
}
