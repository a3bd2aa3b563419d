package vocab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/duosync/pkg/models"
)

// Options is the importer policy
type Options struct {
	ModelName string
	DeckName  string
	Tag       string
}

// DefaultOptions returns the importer defaults
func DefaultOptions() Options {
	return Options{
		ModelName: "Duolingo Sync",
		DeckName:  "Default",
		Tag:       "duolingo_sync",
	}
}

// App carries the collaborators of a sync run
type App struct {
	Storage   Storage
	UI        Interactor
	Connector Connector
	Log       *slog.Logger
	Options   Options
}

// NewApp wires an App; zero-valued options fall back to DefaultOptions
func NewApp(storage Storage, ui Interactor, connector Connector, log *slog.Logger, opts Options) *App {
	def := DefaultOptions()
	if opts.ModelName == "" {
		opts.ModelName = def.ModelName
	}
	if opts.DeckName == "" {
		opts.DeckName = def.DeckName
	}
	if opts.Tag == "" {
		opts.Tag = def.Tag
	}
	if log == nil {
		log = slog.Default()
	}
	return &App{Storage: storage, UI: ui, Connector: connector, Log: log, Options: opts}
}

// ImportResult reports the outcome of one import
type ImportResult struct {
	Language string
	Remote   int // entries in the remote overview
	Existing int // distinct remote identifiers already imported
	New      int // entries selected for import
	Added    int // notes actually created
	Declined bool
}

const (
	msgInvalidCredentials = `<p>Logging in to Duolingo failed. Please check your Duolingo credentials.</p>

<p>Having trouble logging in? You must use your <i>Duolingo</i> username and password.
You <i>can't</i> use your Google or Facebook credentials, even if that's what you use to
sign in to Duolingo.</p>

<p>You can find your Duolingo username at
<a href="https://www.duolingo.com/settings">https://www.duolingo.com/settings</a> and you
can create or set your Duolingo password at
<a href="https://www.duolingo.com/settings/password">https://www.duolingo.com/settings/password</a>.</p>`
	msgNetworkUnavailable = "Could not connect to Duolingo. Please check your internet connection."
)

// ExistingIdentifiers returns the remote identifiers already imported, read from the
// first field of every note carrying the sync tag.
func (a *App) ExistingIdentifiers(ctx context.Context) (map[string]struct{}, error) {
	ids, err := a.Storage.FindNotesByTag(ctx, a.Options.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to find imported notes: %w", err)
	}

	existing := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}

	values, err := a.Storage.ReadFieldValues(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read imported notes: %w", err)
	}
	for _, fields := range values {
		if len(fields) > 0 && fields[0] != "" {
			existing[fields[0]] = struct{}{}
		}
	}
	return existing, nil
}

// ImportVocabulary fetches the overview, asks for confirmation and creates one note per
// entry not in existing. Notes are persisted one by one; a remote failure stops the run
// and keeps what was already added.
func (a *App) ImportVocabulary(ctx context.Context, model *models.NoteModel, remote Remote, existing map[string]struct{}) (*ImportResult, error) {
	overview, err := remote.FetchOverview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vocabulary: %w", err)
	}

	result := &ImportResult{
		Language: overview.Language,
		Remote:   len(overview.Entries),
	}

	if err := a.Storage.SetDefaultDeckModel(ctx, a.Options.DeckName, model); err != nil {
		return result, fmt.Errorf("failed to select deck: %w", err)
	}

	fresh := PartitionNew(overview.Entries, existing)
	result.New = len(fresh)
	result.Existing = countImported(overview.Entries, existing)

	a.Log.Info("vocabulary fetched",
		"language", overview.Language,
		"remote", result.Remote,
		"new", result.New)

	if len(fresh) == 0 {
		a.UI.Info(ctx, fmt.Sprintf("Successfully logged in to Duolingo, but no new words found in %s language.", overview.Language))
		return result, nil
	}

	ok, err := a.UI.Confirm(ctx, fmt.Sprintf("Add %d notes from %s language?", len(fresh), overview.Language))
	if err != nil {
		return result, err
	}
	if !ok {
		result.Declined = true
		return result, nil
	}

	a.UI.StartProgress("Importing from Duolingo...", len(fresh))
	defer a.UI.FinishProgress()

	for i, batch := range Batches(fresh, BatchSize) {
		words := make([]string, len(batch))
		for j, e := range batch {
			words[j] = e.Word
		}

		translations, err := remote.FetchTranslations(ctx, words)
		if err != nil {
			return result, fmt.Errorf("failed to fetch translations for batch %d: %w", i+1, err)
		}

		for _, e := range batch {
			fields, tags := BuildNote(e, translations.Lookup(e.Word), overview.Language, a.Options.Tag)
			if _, err := a.Storage.CreateNote(ctx, model, fields, tags); err != nil {
				return result, fmt.Errorf("failed to add note for %q: %w", e.Word, err)
			}
			result.Added++
			a.UI.UpdateProgress(result.Added)
		}
		a.Log.Debug("batch imported", "batch", i+1, "size", len(batch), "added", result.Added)
	}

	a.UI.Info(ctx, fmt.Sprintf("%d notes added", result.Added))
	return result, nil
}

// Sync is the single user action: make sure the note type exists, ask for credentials,
// log in and import. Failures are shown to the user and returned; a cancelled prompt
// returns ErrCancelled and shows nothing.
func (a *App) Sync(ctx context.Context) (*ImportResult, error) {
	model, err := a.EnsureModel(ctx)
	if err != nil {
		if errors.Is(err, ErrModelDeclined) {
			a.UI.Warning(ctx, fmt.Sprintf("Could not find or create %s note type.", a.Options.ModelName))
		}
		return nil, err
	}

	existing, err := a.ExistingIdentifiers(ctx)
	if err != nil {
		return nil, err
	}

	prompt, err := a.UI.PromptCredentials(ctx)
	if err != nil {
		return nil, err
	}
	if prompt.Cancelled {
		return nil, ErrCancelled
	}

	remote, err := NewGate(a.Connector, a.Log).Authenticate(ctx, prompt.Credentials)
	switch {
	case err == nil:
	case errors.Is(err, ErrCancelled):
		return nil, err
	case errors.Is(err, ErrInvalidCredentials):
		a.UI.Warning(ctx, msgInvalidCredentials)
		return nil, err
	case errors.Is(err, ErrNetworkUnavailable):
		a.UI.Warning(ctx, msgNetworkUnavailable)
		return nil, err
	default:
		return nil, err
	}

	result, err := a.ImportVocabulary(ctx, model, remote, existing)
	if err != nil {
		added := 0
		if result != nil {
			added = result.Added
		}
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			a.Log.Info("import cancelled", "added", added)
			return result, err
		}
		a.Log.Error("import stopped", "added", added, "error", err)
		if errors.Is(err, ErrNetworkUnavailable) {
			a.UI.Warning(ctx, msgNetworkUnavailable)
		} else {
			a.UI.Warning(ctx, fmt.Sprintf("Import stopped after %d notes: %v", added, err))
		}
		return result, err
	}
	a.Log.Info("import finished",
		"language", result.Language,
		"added", result.Added,
		"declined", result.Declined)
	return result, nil
}

// countImported returns how many distinct identifiers of entries are in existing
func countImported(entries []models.VocabularyEntry, existing map[string]struct{}) int {
	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := existing[e.ID]; ok {
			seen[e.ID] = struct{}{}
		}
	}
	return len(seen)
}
