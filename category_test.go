package fleetcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCategoryTable_ResolveGroup(t *testing.T) {
	table := DefaultCategoryTable()

	tests := []struct {
		in   string
		want string
	}{
		{"caminhão", GroupTruck},
		{"CAMINHAO", GroupTruck},
		{"  Caminhão ", GroupTruck},
		{"carro", GroupCar},
		{"Moto", GroupCar},
		{"retroescavadeira", GroupBackhoe},
		{"submarino", GroupCar},
		{"", GroupCar},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, table.ResolveGroup(tt.in))
		})
	}
}

func TestNewCategoryTable_Validation(t *testing.T) {
	_, err := NewCategoryTable(1, "", map[string][]string{"carro": nil})
	assert.Error(t, err)

	_, err = NewCategoryTable(1, "onibus", map[string][]string{"carro": nil})
	assert.Error(t, err)

	_, err = NewCategoryTable(1, "carro", map[string][]string{
		"carro":    {"utilitario"},
		"caminhao": {"Utilitário"},
	})
	assert.Error(t, err)
}

func TestLoadCategoryTable(t *testing.T) {
	src := `
version: 2
default: carro
groups:
  caminhao: [caminhão, carreta]
  carro: [carro, moto, van]
  onibus: [ônibus, micro-ônibus]
`
	table, err := LoadCategoryTable(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Version)
	assert.Equal(t, "caminhao", table.ResolveGroup("Carreta"))
	assert.Equal(t, "onibus", table.ResolveGroup("ONIBUS"))
	assert.Equal(t, "onibus", table.ResolveGroup("Micro-Ônibus"))
	assert.Equal(t, "carro", table.ResolveGroup("trator"))
}

func TestLoadCategoryTable_Invalid(t *testing.T) {
	_, err := LoadCategoryTable(strings.NewReader("version: [1"))
	assert.Error(t, err)

	_, err = LoadCategoryTable(strings.NewReader("version: 1\ndefault: trem\ngroups:\n  carro: []\n"))
	assert.Error(t, err)
}
