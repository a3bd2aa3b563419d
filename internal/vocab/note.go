package vocab

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/example/duosync/pkg/models"
)

// BatchSize is the number of words looked up per translation request
const BatchSize = 50

// Note fields render as HTML in card templates, so remote strings are stripped of markup.
var fieldPolicy = bluemonday.StrictPolicy()

// BuildNote maps a vocabulary entry onto NoteFields values and tags.
func BuildNote(entry models.VocabularyEntry, translations []string, language, syncTag string) (fields []string, tags []string) {
	fields = []string{
		entry.ID,
		sanitize(entry.Gender),
		sanitize(strings.Join(translations, "; ")),
		sanitize(entry.Word),
		sanitize(language),
	}

	tags = appendTag(nil, language)
	tags = appendTag(tags, syncTag)
	tags = appendTag(tags, entry.PartOfSpeech)
	tags = appendTag(tags, entry.Skill)
	return fields, tags
}

// sanitize drops tags and keeps text as written
func sanitize(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	return html.UnescapeString(fieldPolicy.Sanitize(s))
}

// appendTag adds tag unless it is empty or already present. Tags are space separated
// in storage, so inner whitespace becomes an underscore.
func appendTag(tags []string, tag string) []string {
	tag = strings.Join(strings.Fields(tag), "_")
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return tags
		}
	}
	return append(tags, tag)
}

// PartitionNew returns the entries whose identifier is not in existing, in remote order.
// An identifier repeated within entries is kept once.
func PartitionNew(entries []models.VocabularyEntry, existing map[string]struct{}) []models.VocabularyEntry {
	var fresh []models.VocabularyEntry
	seen := make(map[string]struct{})
	for _, e := range entries {
		if _, ok := existing[e.ID]; ok {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}
	return fresh
}

// Batches splits items into consecutive chunks of size; the last chunk holds the remainder.
func Batches[T any](items []T, size int) [][]T {
	if size < 1 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
