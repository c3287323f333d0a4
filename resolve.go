package fleetcheck

import "github.com/google/uuid"

// Selection is the vehicle and inspector chosen on an inspection form.
// Either id may be nil while the form is being filled.
type Selection struct {
	VehicleID   uuid.UUID `json:"vehicleId"`
	InspectorID uuid.UUID `json:"inspectorId"`
}

// ResolveSelection resolves the vehicle and inspector a report is about.
//
// The vehicle must be selected and known. The inspector is taken from the
// explicit selection, and an explicit id that matches no known inspector
// is treated as missing. Without a selection, when the signed-in profile is an
// inspector, it is matched against the known inspectors by id and then by
// first and last name, and finally synthesized from the profile itself.
// Anything else fails with MissingSelection naming the missing field.
//
// Preview and export both resolve through here so they always agree.
func ResolveSelection(sel Selection, vehicles []*Vehicle, inspectors []*Inspector, profile *Profile) (*Vehicle, *Inspector, error) {
	vehicle := findVehicle(vehicles, sel.VehicleID)
	if vehicle == nil {
		return nil, nil, MissingSelection(SelectionVehicle)
	}

	inspector := resolveInspector(sel.InspectorID, inspectors, profile)
	if inspector == nil {
		return nil, nil, MissingSelection(SelectionInspector)
	}
	return vehicle, inspector, nil
}

func findVehicle(vehicles []*Vehicle, id uuid.UUID) *Vehicle {
	if id == uuid.Nil {
		return nil
	}
	for _, v := range vehicles {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func resolveInspector(id uuid.UUID, inspectors []*Inspector, profile *Profile) *Inspector {
	if id != uuid.Nil {
		for _, in := range inspectors {
			if in.ID == id {
				return in
			}
		}
		return nil
	}

	if !profile.IsInspector() {
		return nil
	}

	for _, in := range inspectors {
		if in.ID == profile.ID {
			return in
		}
	}

	first, last := foldCategory(profile.FirstName), foldCategory(profile.LastName)
	if first != "" || last != "" {
		for _, in := range inspectors {
			if foldCategory(in.FirstName) == first && foldCategory(in.LastName) == last {
				return in
			}
		}
	}

	return &Inspector{
		ID:        profile.ID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	}
}
