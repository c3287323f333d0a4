package fleetcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectLegacy(t *testing.T) {
	answers := AnswerMap{
		"pneus":          {Status: StatusFunctioning},
		"luzes_internas": {Status: StatusNeedsReview, Observation: "fraca"},
		"nao_mapeado":    {Status: StatusMissing},
	}

	got := ProjectLegacy(answers)

	assert.Len(t, got, len(LegacyColumns))
	assert.Equal(t, "funcionando", got["pneus"])
	assert.Equal(t, "revisar", got["luzes_internas"])
	assert.Equal(t, "", got["extintor"])
	assert.NotContains(t, got, "nao_mapeado")
}

func TestHydrateFromLegacy(t *testing.T) {
	answers := AnswerMap{"pneus": {Status: StatusMissing}}
	legacy := map[string]string{
		"pneus":    "ok",
		"extintor": "NOT_OK",
		"estepe":   "",
		"outra":    "ok",
	}

	got := HydrateFromLegacy(answers, legacy)

	assert.Equal(t, AnswerMap{
		"pneus":    {Status: StatusMissing},
		"extintor": {Status: StatusNotOK},
	}, got)
	assert.Len(t, answers, 1, "input map must not be modified")
}
