package fleetcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFieldKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Pneus", "pneus"},
		{"spaces", "Luzes Internas", "luzes_internas"},
		{"accents", "Luzes Internãs", "luzes_internas"},
		{"cedilla", "Condição do Câmbio", "condicao_do_cambio"},
		{"whitespace runs", "  Chave   de\tRoda  ", "chave_de_roda"},
		{"punctuation", "Extintor (validade)!", "extintor_validade"},
		{"punctuation between words", "Pára-brisa / Limpador", "parabrisa_limpador"},
		{"digits", "Eixo 2 - Pneus", "eixo_2_pneus"},
		{"underscores kept", "luzes_internas", "luzes_internas"},
		{"surrounding underscores", "_cinto_", "cinto"},
		{"only punctuation", "?!--", ""},
		{"non latin", "東京", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFieldKey(tt.in))
		})
	}
}

func TestNormalizeFieldKey_Idempotent(t *testing.T) {
	inputs := []string{
		"Luzes Internas", "Pára-choque Dianteiro", "  ÓLEO do MOTOR ", "Nível _ do _ fluido",
		"Triângulo", "cinto_seguranca", "Eixo 2 - Pneus",
	}
	for _, in := range inputs {
		key := NormalizeFieldKey(in)
		assert.Equal(t, key, NormalizeFieldKey(key), in)
		assert.Regexp(t, `^[a-z0-9_]*$`, key)
	}
}

func TestNormalizeFieldKey_Collisions(t *testing.T) {
	assert.Equal(t, NormalizeFieldKey("Luzes Internas"), NormalizeFieldKey("LUZES INTERNÃS"))
	assert.Equal(t, NormalizeFieldKey("Freio de mão"), NormalizeFieldKey("freio de mao!"))
}

func TestFieldKeyFor(t *testing.T) {
	key, err := FieldKeyFor("Estepe")
	assert.NoError(t, err)
	assert.Equal(t, "estepe", key)

	_, err = FieldKeyFor("***")
	assert.ErrorIs(t, err, ErrEmptyFieldKey)
}

func TestDetectKeyCollisions(t *testing.T) {
	items := []*ChecklistItem{
		{Name: "Pneus"},
		{Name: "Luzes Internas"},
		{Name: "PNEUS!"},
		{Name: "luzes  internãs"},
		{Name: "Extintor"},
		{Name: "--"},
	}

	got := DetectKeyCollisions(items)

	assert.Equal(t, []KeyCollision{
		{Key: "pneus", Names: []string{"Pneus", "PNEUS!"}},
		{Key: "luzes_internas", Names: []string{"Luzes Internas", "luzes  internãs"}},
	}, got)
}
