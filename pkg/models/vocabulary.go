package models

// VocabularyEntry is one word from the remote vocabulary overview
type VocabularyEntry struct {
	ID            string  `json:"id"`
	Word          string  `json:"word_string"`
	Gender        string  `json:"gender"`
	PartOfSpeech  string  `json:"pos"`
	Skill         string  `json:"skill"`
	Strength      float64 `json:"strength"`
	LastPracticed string  `json:"last_practiced"`
}

// Overview is the vocabulary snapshot for the active language
type Overview struct {
	Language         string            `json:"language_string"`
	LearningLanguage string            `json:"learning_language"`
	FromLanguage     string            `json:"from_language"`
	Entries          []VocabularyEntry `json:"vocab_overview"`
}

// TranslationSet maps a word to its translations, most relevant first
type TranslationSet map[string][]string

// Lookup returns the translations for word, or nil when the remote returned none
func (t TranslationSet) Lookup(word string) []string {
	if t == nil {
		return nil
	}
	return t[word]
}
