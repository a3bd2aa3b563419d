package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/duosync/pkg/models"
)

// NoteSource lists stored notes by tag
type NoteSource interface {
	ListByTag(ctx context.Context, tag string) ([]models.Note, error)
}

// ExportConfig defines the export configuration
type ExportConfig struct {
	FilePath   string   // Path of the .xlsx or .csv file to write
	SheetName  string   // Sheet name for Excel output
	Tag        string   // Only notes carrying this tag are exported
	Columns    []string // Header names of the note fields, in field order
	SkipHeader bool     // Do not write the header row
}

// DefaultExportConfig returns the default export configuration
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		SheetName: "Vocabulary",
		Tag:       "duolingo_sync",
		Columns:   []string{"Gid", "Gender", "Source", "Target", "Target Language"},
	}
}

// ExportResult holds the result of an export operation
type ExportResult struct {
	FilePath string
	Rows     int
}

// ExportNotes writes the notes carrying config.Tag to an Excel or CSV file, one row per note:
// the field values followed by the space separated tags.
func ExportNotes(ctx context.Context, src NoteSource, config ExportConfig) (*ExportResult, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("export file path is empty")
	}

	notes, err := src.ListByTag(ctx, config.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	rows := make([][]string, 0, len(notes)+1)
	if !config.SkipHeader {
		rows = append(rows, append(append([]string(nil), config.Columns...), "Tags"))
	}
	for _, n := range notes {
		rows = append(rows, noteRow(n, len(config.Columns)))
	}

	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		err = exportToCSV(config.FilePath, rows)
	} else {
		err = exportToExcel(config.FilePath, config.SheetName, rows)
	}
	if err != nil {
		return nil, err
	}

	return &ExportResult{FilePath: config.FilePath, Rows: len(notes)}, nil
}

// noteRow pads or truncates fields to width and appends the tags column
func noteRow(n models.Note, width int) []string {
	row := make([]string, width, width+1)
	copy(row, n.Fields)
	return append(row, strings.Join(n.Tags, " "))
}

// exportToExcel writes rows into a single-sheet workbook
func exportToExcel(path, sheet string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		f.SetSheetName("Sheet1", sheet)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

// exportToCSV writes rows as CSV
func exportToCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return file.Close()
}
