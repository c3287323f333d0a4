package fleetcheck

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyFieldKey is returned when a checklist item name has no
// characters left after normalization.
var ErrEmptyFieldKey = errors.New("field key is empty after normalization")

// foldAccents lower-cases s and removes combining marks left behind by
// canonical decomposition, so "Luzes Internãs" becomes "luzes internas".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// NormalizeFieldKey derives the storage key for a checklist item name.
//
// The result only contains [a-z0-9_]: the name is lower-cased, accents are
// stripped, everything that is not a letter, digit, underscore or space is
// dropped, whitespace runs become a single underscore and surrounding
// underscores are trimmed. Names differing only in case, accents or
// punctuation share a key; callers that care can use DetectKeyCollisions.
func NormalizeFieldKey(name string) string {
	folded := foldAccents(name)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			pendingSep = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

// FieldKeyFor normalizes name and rejects names that produce an empty key.
func FieldKeyFor(name string) (string, error) {
	key := NormalizeFieldKey(name)
	if key == "" {
		return "", ErrEmptyFieldKey
	}
	return key, nil
}

// KeyCollision describes checklist items whose names map to the same key.
type KeyCollision struct {
	Key   string   `json:"key"`
	Names []string `json:"names"`
}

// DetectKeyCollisions lists every key shared by more than one item, in the
// order the key was first seen. The answer map keeps last-write-wins; this
// is a diagnostic only.
func DetectKeyCollisions(items []*ChecklistItem) []KeyCollision {
	names := make(map[string][]string)
	var order []string
	for _, item := range items {
		key := item.FieldKey()
		if key == "" {
			continue
		}
		if _, seen := names[key]; !seen {
			order = append(order, key)
		}
		names[key] = append(names[key], item.Name)
	}

	var out []KeyCollision
	for _, key := range order {
		if len(names[key]) > 1 {
			out = append(out, KeyCollision{Key: key, Names: names[key]})
		}
	}
	return out
}
