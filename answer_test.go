package fleetcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswers_RoundTrip(t *testing.T) {
	in := AnswerMap{
		"pneus":          {Status: StatusFunctioning},
		"luzes_internas": {Status: StatusNeedsReview, Observation: "lâmpada fraca"},
		"extintor":       {Status: StatusMissing, Observation: "vencido"},
		"estepe":         {},
	}

	data, err := EncodeAnswers(in)
	require.NoError(t, err)

	out, err := DecodeAnswers(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeAnswers_LegacyForms(t *testing.T) {
	data := []byte(`{
		"pneus": "OK",
		"buzina": " not_ok ",
		"estepe": {"status": "Funcionando", "observation": "calibrado"},
		"macaco": null
	}`)

	got, err := DecodeAnswers(data)
	require.NoError(t, err)

	assert.Equal(t, AnswerMap{
		"pneus":  {Status: StatusOK},
		"buzina": {Status: StatusNotOK},
		"estepe": {Status: StatusFunctioning, Observation: "calibrado"},
	}, got)
}

func TestDecodeAnswers_Empty(t *testing.T) {
	for _, in := range []string{"", "null", "  "} {
		got, err := DecodeAnswers([]byte(in))
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	_, err := DecodeAnswers([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestEncodeAnswers_Nil(t *testing.T) {
	data, err := EncodeAnswers(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestDefaultAnswers(t *testing.T) {
	items := []*ChecklistItem{{Name: "Pneus"}, {Name: "Luzes Internas"}, {Name: "!!"}}

	got := DefaultAnswers(items)

	assert.Equal(t, AnswerMap{"pneus": {}, "luzes_internas": {}}, got)
	_, ok := got.Lookup(items[1])
	assert.True(t, ok)
}

func TestAnswerStatus(t *testing.T) {
	assert.True(t, StatusFunctioning.IsWritable())
	assert.True(t, StatusAbsent.IsWritable())
	assert.False(t, StatusOK.IsWritable())
	assert.True(t, StatusOK.IsLegacy())
	assert.False(t, AnswerStatus("quebrado").IsWritable())
}

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		answer  Answer
		wantErr bool
	}{
		{"writable status", "pneus", Answer{Status: StatusConforming}, false},
		{"empty status clears", "pneus", Answer{}, false},
		{"legacy status rejected", "pneus", Answer{Status: StatusOK}, true},
		{"unknown status", "pneus", Answer{Status: "quebrado"}, true},
		{"raw name as key", "Luzes Internas", Answer{Status: StatusFunctioning}, true},
		{"empty key", "", Answer{Status: StatusFunctioning}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(tt.key, tt.answer)
			if tt.wantErr {
				assert.Equal(t, EINVALID, ErrorCode(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}
