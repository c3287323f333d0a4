package fleetcheck

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Role is the access level of a profile.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEditor    Role = "editor"
	RoleInspector Role = "inspector"
)

// Company is the issuer metadata printed on report headers.
type Company struct {
	Name    string `json:"name,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
	Contact string `json:"contact,omitempty"`
	Address string `json:"address,omitempty"`
}

// Profile is a signed-in user of the system.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	Company   Company   `json:"company"`
}

// IsInspector returns true if the profile fills inspections.
func (p *Profile) IsInspector() bool {
	return p != nil && p.Role == RoleInspector
}

// CanEditChecklist returns true if the profile manages checklist items.
func (p *Profile) CanEditChecklist() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleEditor)
}

// Inspector is the person responsible for an inspection.
type Inspector struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// FullName returns the inspector's first and last names joined by a space.
func (i *Inspector) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
}

// ProfileService defines operations over profiles.
type ProfileService interface {
	// FindProfileByID retrieves a profile by its ID.
	// Returns ENOTFOUND if the profile does not exist.
	FindProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error)

	// FindInspectors returns every profile with the inspector role.
	FindInspectors(ctx context.Context) ([]*Inspector, error)

	// UpdateCompany replaces the issuer metadata of a profile.
	UpdateCompany(ctx context.Context, id uuid.UUID, company Company) (*Profile, error)
}
