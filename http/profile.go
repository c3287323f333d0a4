package http

import (
	"log/slog"

	"github.com/dukerupert/fleetcheck"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleMe(c echo.Context) error {
	profile, err := requireProfile(c)
	if err != nil {
		return err
	}
	return RespondOK(c, profile)
}

// UpdateCompanyRequest is the request payload for the report issuer block.
type UpdateCompanyRequest struct {
	Name    string `json:"name" validate:"max=200"`
	TaxID   string `json:"taxId" validate:"max=32"`
	Contact string `json:"contact" validate:"max=200"`
	Address string `json:"address" validate:"max=300"`
}

func (s *Server) handleUpdateCompany(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	profile, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req UpdateCompanyRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	updated, err := s.profileService.UpdateCompany(ctx, profile.ID, fleetcheck.Company{
		Name:    req.Name,
		TaxID:   req.TaxID,
		Contact: req.Contact,
		Address: req.Address,
	})
	if err != nil {
		return err
	}

	s.log(c).Info("company updated", slog.String("profile_id", profile.ID.String()))
	return RespondOK(c, updated)
}

func (s *Server) handleListInspectors(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	inspectors, err := s.profileService.FindInspectors(ctx)
	if err != nil {
		return err
	}
	if inspectors == nil {
		inspectors = []*fleetcheck.Inspector{}
	}
	return RespondOK(c, inspectors)
}
