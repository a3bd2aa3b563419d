package vocab

import (
	"context"
	"errors"
	"strings"

	"github.com/example/duosync/pkg/models"
)

type fakeRemote struct {
	overview         *models.Overview
	overviewErr      error
	translations     models.TranslationSet
	translationsErr  error
	failOnBatch      int // 1-based batch number that fails, 0 disables
	translationCalls [][]string
}

func (r *fakeRemote) FetchOverview(ctx context.Context) (*models.Overview, error) {
	if r.overviewErr != nil {
		return nil, r.overviewErr
	}
	return r.overview, nil
}

func (r *fakeRemote) FetchTranslations(ctx context.Context, words []string) (models.TranslationSet, error) {
	r.translationCalls = append(r.translationCalls, append([]string(nil), words...))
	if r.failOnBatch > 0 && len(r.translationCalls) == r.failOnBatch {
		return nil, r.translationsErr
	}
	out := make(models.TranslationSet)
	for _, w := range words {
		if t, ok := r.translations[w]; ok {
			out[w] = t
		}
	}
	return out, nil
}

type storedNote struct {
	modelID int64
	deck    string
	fields  []string
	tags    []string
}

type fakeStorage struct {
	models     map[string]*models.NoteModel
	notes      []storedNote
	deck       string
	deckModel  map[string]int64
	nextID     int64
	failCreate error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		models:    make(map[string]*models.NoteModel),
		deckModel: make(map[string]int64),
	}
}

func (s *fakeStorage) FindNotesByTag(ctx context.Context, tag string) ([]int64, error) {
	var ids []int64
	for i, n := range s.notes {
		for _, t := range n.tags {
			if strings.EqualFold(t, tag) {
				ids = append(ids, int64(i))
				break
			}
		}
	}
	return ids, nil
}

func (s *fakeStorage) ReadFieldValues(ctx context.Context, noteIDs []int64) ([][]string, error) {
	out := make([][]string, 0, len(noteIDs))
	for _, id := range noteIDs {
		if id < 0 || int(id) >= len(s.notes) {
			return nil, errors.New("no such note")
		}
		out = append(out, s.notes[id].fields)
	}
	return out, nil
}

func (s *fakeStorage) ModelByName(ctx context.Context, name string) (*models.NoteModel, error) {
	return s.models[name], nil
}

func (s *fakeStorage) CreateModel(ctx context.Context, m *models.NoteModel) error {
	s.nextID++
	m.ID = s.nextID
	s.models[m.Name] = m
	return nil
}

func (s *fakeStorage) CreateNote(ctx context.Context, m *models.NoteModel, fields []string, tags []string) (int64, error) {
	if s.failCreate != nil {
		return 0, s.failCreate
	}
	s.notes = append(s.notes, storedNote{modelID: m.ID, deck: s.deck, fields: fields, tags: tags})
	return int64(len(s.notes) - 1), nil
}

func (s *fakeStorage) SetDefaultDeckModel(ctx context.Context, deck string, m *models.NoteModel) error {
	s.deck = deck
	s.deckModel[deck] = m.ID
	return nil
}

type fakeUI struct {
	credentials CredentialsResult
	confirm     map[string]bool // message prefix -> answer, missing means yes
	confirms    []string
	infos       []string
	warnings    []string
	prompted    int
	progressMax int
	progress    []int
	finished    bool
}

func (u *fakeUI) PromptCredentials(ctx context.Context) (CredentialsResult, error) {
	u.prompted++
	return u.credentials, nil
}

func (u *fakeUI) Confirm(ctx context.Context, message string) (bool, error) {
	u.confirms = append(u.confirms, message)
	for prefix, answer := range u.confirm {
		if strings.HasPrefix(message, prefix) {
			return answer, nil
		}
	}
	return true, nil
}

func (u *fakeUI) Info(ctx context.Context, message string) { u.infos = append(u.infos, message) }
func (u *fakeUI) Warning(ctx context.Context, message string) {
	u.warnings = append(u.warnings, message)
}
func (u *fakeUI) StartProgress(label string, max int) { u.progressMax = max }
func (u *fakeUI) UpdateProgress(value int)            { u.progress = append(u.progress, value) }
func (u *fakeUI) FinishProgress()                     { u.finished = true }

type fakeConnector struct {
	remote Remote
	err    error
	calls  int
}

func (c *fakeConnector) Login(ctx context.Context, username, password string) (Remote, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.remote, nil
}
