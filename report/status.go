package report

import (
	"strings"

	"github.com/dukerupert/fleetcheck"
	"golang.org/x/text/cases"
)

// Tone is the semantic colour of a status badge.
type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneNeutral Tone = "neutral"
)

// Badge is the rendered form of an answer status.
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

// StatusBadge maps a stored status to its label and tone. Anything outside
// the known set, including the empty status, is "not checked".
func StatusBadge(status fleetcheck.AnswerStatus, s *Strings) Badge {
	switch status {
	case fleetcheck.StatusFunctioning, fleetcheck.StatusConforming:
		return Badge{Label: s.Labels.Yes, Tone: ToneSuccess}
	case fleetcheck.StatusNeedsReview:
		return Badge{Label: s.Labels.Review, Tone: ToneWarning}
	case fleetcheck.StatusMissing, fleetcheck.StatusAbsent:
		return Badge{Label: s.Labels.Missing, Tone: ToneDanger}
	case fleetcheck.StatusOK:
		return Badge{Label: s.Labels.OK, Tone: ToneSuccess}
	case fleetcheck.StatusNotOK:
		return Badge{Label: s.Labels.NotOK, Tone: ToneDanger}
	case fleetcheck.StatusNotApplicable:
		return Badge{Label: s.Labels.NotApplicable, Tone: ToneNeutral}
	default:
		return Badge{Label: s.Labels.NotChecked, Tone: ToneNeutral}
	}
}

// CategoryTitle returns the display title of an item category. Unknown
// categories are shown as written, title-cased.
func CategoryTitle(category string, s *Strings) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return s.GeneralCategory
	}
	if title, ok := s.CategoryTitles[fleetcheck.NormalizeFieldKey(category)]; ok {
		return title
	}
	return cases.Title(s.Language).String(category)
}
