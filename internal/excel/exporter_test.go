package excel

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/duosync/pkg/models"
)

type stubSource struct {
	notes []models.Note
	tag   string
}

func (s *stubSource) ListByTag(ctx context.Context, tag string) ([]models.Note, error) {
	s.tag = tag
	return s.notes, nil
}

func testNotes() []models.Note {
	return []models.Note{
		{Fields: []string{"g1", "m", "cat", "gato", "Spanish"}, Tags: []string{"Spanish", "duolingo_sync", "noun"}},
		{Fields: []string{"g2", "", "", "beber", "Spanish"}, Tags: []string{"Spanish", "duolingo_sync"}},
	}
}

func TestExportNotes_Excel(t *testing.T) {
	src := &stubSource{notes: testNotes()}
	config := DefaultExportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "words.xlsx")

	result, err := ExportNotes(context.Background(), src, config)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, "duolingo_sync", src.tag)

	f, err := excelize.OpenFile(config.FilePath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Vocabulary")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Gid", "Gender", "Source", "Target", "Target Language", "Tags"}, rows[0])
	assert.Equal(t, []string{"g1", "m", "cat", "gato", "Spanish", "Spanish duolingo_sync noun"}, rows[1])
	assert.Equal(t, "beber", rows[2][3])
}

func TestExportNotes_CSV(t *testing.T) {
	src := &stubSource{notes: testNotes()}
	config := DefaultExportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "words.csv")
	config.SkipHeader = true

	result, err := ExportNotes(context.Background(), src, config)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)

	file, err := os.Open(config.FilePath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"g2", "", "", "beber", "Spanish", "Spanish duolingo_sync"}, records[1])
}

func TestExportNotes_RequiresPath(t *testing.T) {
	_, err := ExportNotes(context.Background(), &stubSource{}, DefaultExportConfig())
	require.Error(t, err)
}

func TestNoteRow_PadsShortNotes(t *testing.T) {
	row := noteRow(models.Note{Fields: []string{"a"}}, 3)
	assert.Equal(t, []string{"a", "", "", ""}, row)
}
