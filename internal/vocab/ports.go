package vocab

import (
	"context"

	"github.com/example/duosync/pkg/models"
)

// Remote is an authenticated session with the vocabulary service
type Remote interface {
	FetchOverview(ctx context.Context) (*models.Overview, error)
	FetchTranslations(ctx context.Context, words []string) (models.TranslationSet, error)
}

// Connector opens a Remote session for a username/password pair
type Connector interface {
	Login(ctx context.Context, username, password string) (Remote, error)
}

// ConnectorFunc adapts a function to Connector
type ConnectorFunc func(ctx context.Context, username, password string) (Remote, error)

func (f ConnectorFunc) Login(ctx context.Context, username, password string) (Remote, error) {
	return f(ctx, username, password)
}

// Storage is the flashcard collection the importer writes into
type Storage interface {
	// FindNotesByTag returns ids of notes carrying tag
	FindNotesByTag(ctx context.Context, tag string) ([]int64, error)
	// ReadFieldValues returns the field values of each note, in field order
	ReadFieldValues(ctx context.Context, noteIDs []int64) ([][]string, error)
	// ModelByName returns nil, nil when no model has that name
	ModelByName(ctx context.Context, name string) (*models.NoteModel, error)
	CreateModel(ctx context.Context, model *models.NoteModel) error
	// CreateNote adds a note to the currently selected deck
	CreateNote(ctx context.Context, model *models.NoteModel, fields []string, tags []string) (int64, error)
	// SetDefaultDeckModel selects deck (creating it if needed) and makes model its default
	SetDefaultDeckModel(ctx context.Context, deck string, model *models.NoteModel) error
}

// Credentials for the remote service
type Credentials struct {
	Username string
	Password string
}

// CredentialsResult is the outcome of a credential prompt
type CredentialsResult struct {
	Credentials Credentials
	Cancelled   bool
}

// Confirmed wraps credentials the user submitted
func Confirmed(c Credentials) CredentialsResult {
	return CredentialsResult{Credentials: c}
}

// Cancelled is the result of a dismissed prompt
func Cancelled() CredentialsResult {
	return CredentialsResult{Cancelled: true}
}

// Interactor is the user-facing side of a sync run. All calls block.
type Interactor interface {
	PromptCredentials(ctx context.Context) (CredentialsResult, error)
	Confirm(ctx context.Context, message string) (bool, error)
	Info(ctx context.Context, message string)
	Warning(ctx context.Context, message string)
	StartProgress(label string, max int)
	UpdateProgress(value int)
	FinishProgress()
}
