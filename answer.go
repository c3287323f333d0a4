package fleetcheck

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerStatus is the recorded outcome of one checklist item.
type AnswerStatus string

const (
	StatusFunctioning AnswerStatus = "funcionando"
	StatusConforming  AnswerStatus = "conforme"
	StatusNeedsReview AnswerStatus = "revisar"
	StatusMissing     AnswerStatus = "faltando"
	StatusAbsent      AnswerStatus = "ausente"

	// Legacy values still found in older inspections.
	StatusOK            AnswerStatus = "ok"
	StatusNotOK         AnswerStatus = "not_ok"
	StatusNotApplicable AnswerStatus = "not_applicable"
)

// IsWritable returns true for statuses accepted on new answers.
func (s AnswerStatus) IsWritable() bool {
	switch s {
	case StatusFunctioning, StatusConforming, StatusNeedsReview, StatusMissing, StatusAbsent:
		return true
	}
	return false
}

// IsLegacy returns true for statuses only accepted when reading.
func (s AnswerStatus) IsLegacy() bool {
	return s == StatusOK || s == StatusNotOK || s == StatusNotApplicable
}

// Answer is one item's outcome within an inspection.
type Answer struct {
	Status      AnswerStatus `json:"status"`
	Observation string       `json:"observation,omitempty"`
}

// AnswerMap holds answers keyed by field key. A key that is absent means
// the item was not checked.
type AnswerMap map[string]Answer

// Lookup returns the answer recorded for item, if any.
func (m AnswerMap) Lookup(item *ChecklistItem) (Answer, bool) {
	a, ok := m[item.FieldKey()]
	return a, ok
}

// Set records an answer under key, replacing any previous answer.
func (m AnswerMap) Set(key string, a Answer) {
	m[key] = a
}

// Clone returns a shallow copy of the map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefaultAnswers returns an answer map with an empty answer for every item
// whose name produces a field key.
func DefaultAnswers(items []*ChecklistItem) AnswerMap {
	m := make(AnswerMap, len(items))
	for _, item := range items {
		if key := item.FieldKey(); key != "" {
			m[key] = Answer{}
		}
	}
	return m
}

// EncodeAnswers serializes the answer map to the persisted JSON blob.
func EncodeAnswers(m AnswerMap) ([]byte, error) {
	if m == nil {
		m = AnswerMap{}
	}
	return json.Marshal(m)
}

// DecodeAnswers parses a persisted answer blob. Each value may be an
// answer object or a bare status string written by older clients. An empty
// or null blob decodes to an empty map.
func DecodeAnswers(data []byte) (AnswerMap, error) {
	out := AnswerMap{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return out, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}

	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || bytes.Equal(value, []byte("null")) {
			continue
		}

		if value[0] == '"' {
			var status string
			if err := json.Unmarshal(value, &status); err != nil {
				return nil, fmt.Errorf("decoding answer %q: %w", key, err)
			}
			out[key] = Answer{Status: normalizeStatus(status)}
			continue
		}

		var a Answer
		if err := json.Unmarshal(value, &a); err != nil {
			return nil, fmt.Errorf("decoding answer %q: %w", key, err)
		}
		a.Status = normalizeStatus(string(a.Status))
		out[key] = a
	}
	return out, nil
}

func normalizeStatus(s string) AnswerStatus {
	return AnswerStatus(strings.ToLower(strings.TrimSpace(s)))
}

// ValidateAnswer checks an answer before it is written. The key must
// already be a normalized field key and the status must be empty or one of
// the writable statuses.
func ValidateAnswer(key string, a Answer) error {
	if key == "" || NormalizeFieldKey(key) != key {
		return Invalid("Answer key %q is not a field key", key)
	}
	if a.Status != "" && !a.Status.IsWritable() {
		return Invalid("Answer status %q is not accepted", a.Status)
	}
	return nil
}

// Validate checks every answer in the map.
func (m AnswerMap) Validate() error {
	for key, a := range m {
		if err := ValidateAnswer(key, a); err != nil {
			return err
		}
	}
	return nil
}
