package fleetcheck

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Checklist groups shipped with the default category table.
const (
	GroupTruck        = "caminhao"
	GroupCar          = "carro"
	GroupBackhoe      = "retroescavadeira"
	DefaultGroupValue = GroupCar
)

// CategoryTable maps a vehicle's free-text category to the checklist group
// whose items apply to it. Tables are versioned so a deployment can ship a
// new mapping without a code change.
type CategoryTable struct {
	Version int
	Default string
	Groups  map[string][]string

	index map[string]string
}

// NewCategoryTable builds a table and indexes every alias. The default
// group must be one of the groups.
func NewCategoryTable(version int, def string, groups map[string][]string) (*CategoryTable, error) {
	if def == "" {
		return nil, fmt.Errorf("category table v%d: default group is required", version)
	}
	if _, ok := groups[def]; !ok {
		return nil, fmt.Errorf("category table v%d: default group %q is not defined", version, def)
	}

	index := make(map[string]string)
	keys := make([]string, 0, len(groups))
	for group := range groups {
		keys = append(keys, group)
	}
	sort.Strings(keys)

	for _, group := range keys {
		for _, alias := range append([]string{group}, groups[group]...) {
			folded := foldCategory(alias)
			if folded == "" {
				continue
			}
			if prev, ok := index[folded]; ok && prev != group {
				return nil, fmt.Errorf("category table v%d: alias %q maps to both %q and %q", version, alias, prev, group)
			}
			index[folded] = group
		}
	}

	return &CategoryTable{
		Version: version,
		Default: def,
		Groups:  groups,
		index:   index,
	}, nil
}

// DefaultCategoryTable returns the built-in mapping.
func DefaultCategoryTable() *CategoryTable {
	t, err := NewCategoryTable(1, DefaultGroupValue, map[string][]string{
		GroupTruck:   {"caminhão", "caminhao"},
		GroupCar:     {"carro", "moto"},
		GroupBackhoe: {"retroescavadeira"},
	})
	if err != nil {
		panic(err)
	}
	return t
}

type categoryTableFile struct {
	Version int                 `yaml:"version"`
	Default string              `yaml:"default"`
	Groups  map[string][]string `yaml:"groups"`
}

// LoadCategoryTable reads a YAML category table:
//
//	version: 2
//	default: carro
//	groups:
//	  caminhao: [caminhão, carreta]
//	  carro: [carro, moto]
func LoadCategoryTable(r io.Reader) (*CategoryTable, error) {
	var f categoryTableFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding category table: %w", err)
	}
	return NewCategoryTable(f.Version, f.Default, f.Groups)
}

// ResolveGroup returns the checklist group for a vehicle category.
// Unknown or empty categories fall back to the default group.
func (t *CategoryTable) ResolveGroup(category string) string {
	if group, ok := t.index[foldCategory(category)]; ok {
		return group
	}
	return t.Default
}

func foldCategory(s string) string {
	return strings.Join(strings.Fields(foldAccents(s)), " ")
}

// VehicleCategory is a configured vehicle category with its display label.
// UniqueID is the alternate tag some checklist items are filed under.
type VehicleCategory struct {
	ID       uuid.UUID `json:"id"`
	Code     string    `json:"code"`
	Label    string    `json:"label"`
	UniqueID string    `json:"uniqueId,omitempty"`
}

// CategoryService defines lookups over configured vehicle categories.
type CategoryService interface {
	// FindCategories returns every configured category ordered by label.
	FindCategories(ctx context.Context) ([]*VehicleCategory, error)

	// CategoryLabel returns the display name for a category code.
	// Returns the code itself when no category matches.
	CategoryLabel(ctx context.Context, code string) (string, error)
}
