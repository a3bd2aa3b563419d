package vocab

import (
	"context"
	"fmt"

	"github.com/example/duosync/pkg/models"
)

// Field names of the importer note type, in storage order
const (
	FieldGid            = "Gid"
	FieldGender         = "Gender"
	FieldSource         = "Source"
	FieldTarget         = "Target"
	FieldTargetLanguage = "Target Language"
)

// NoteFields is the fixed field layout written by BuildNote
var NoteFields = []string{FieldGid, FieldGender, FieldSource, FieldTarget, FieldTargetLanguage}

// NewNoteModel returns the importer note type: the field layout plus a forward
// (Source -> Target) and a reverse (Target -> Source) card.
func NewNoteModel(name string) *models.NoteModel {
	return &models.NoteModel{
		Name:   name,
		Fields: append([]string(nil), NoteFields...),
		Templates: []models.Template{
			{
				Name:     "Card 1",
				Question: "{{Source}}<br>\n<br>\nTo {{Target Language}}:\n\n<hr id=answer>",
				Answer:   "{{FrontSide}}\n\n<br><br>{{Target}}",
			},
			{
				Name:     "Card 2",
				Question: "{{Target}}<br>\n<br>\nFrom {{Target Language}}:\n\n<hr id=answer>",
				Answer:   "{{FrontSide}}\n\n<br><br>{{Source}}",
			},
		},
	}
}

// EnsureModel looks the note type up by name and, if missing, asks the user whether to create it.
func (a *App) EnsureModel(ctx context.Context) (*models.NoteModel, error) {
	name := a.Options.ModelName

	m, err := a.Storage.ModelByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up note type: %w", err)
	}
	if m != nil {
		if err := checkFields(m); err != nil {
			return nil, err
		}
		return m, nil
	}

	ok, err := a.UI.Confirm(ctx, fmt.Sprintf("%s note type not found. Create?", name))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrModelDeclined
	}

	m = NewNoteModel(name)
	if err := a.Storage.CreateModel(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create note type: %w", err)
	}
	a.Log.Info("created note type", "name", name, "id", m.ID)
	return m, nil
}

// checkFields rejects a same-named model whose layout differs from NoteFields
func checkFields(m *models.NoteModel) error {
	if len(m.Fields) != len(NoteFields) {
		return fmt.Errorf("note type %q has %d fields, want %d", m.Name, len(m.Fields), len(NoteFields))
	}
	for i, f := range NoteFields {
		if m.Fields[i] != f {
			return fmt.Errorf("note type %q field %d is %q, want %q", m.Name, i, m.Fields[i], f)
		}
	}
	return nil
}
