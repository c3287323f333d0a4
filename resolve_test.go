package fleetcheck

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSelection(t *testing.T) {
	vehicle := &Vehicle{ID: uuid.New(), Model: "Actros", Category: "caminhão"}
	carla := &Inspector{ID: uuid.New(), FirstName: "Carla", LastName: "Souza"}
	joao := &Inspector{ID: uuid.New(), FirstName: "João", LastName: "Pereira"}
	vehicles := []*Vehicle{vehicle}
	inspectors := []*Inspector{carla, joao}

	admin := &Profile{ID: uuid.New(), FirstName: "Rui", Role: RoleAdmin}

	t.Run("explicit inspector", func(t *testing.T) {
		v, in, err := ResolveSelection(Selection{VehicleID: vehicle.ID, InspectorID: joao.ID}, vehicles, inspectors, admin)
		require.NoError(t, err)
		assert.Same(t, vehicle, v)
		assert.Same(t, joao, in)
	})

	t.Run("missing vehicle", func(t *testing.T) {
		_, _, err := ResolveSelection(Selection{InspectorID: joao.ID}, vehicles, inspectors, admin)
		field, ok := IsMissingSelection(err)
		assert.True(t, ok)
		assert.Equal(t, SelectionVehicle, field)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		_, _, err := ResolveSelection(Selection{VehicleID: uuid.New()}, vehicles, inspectors, admin)
		field, _ := IsMissingSelection(err)
		assert.Equal(t, SelectionVehicle, field)
	})

	t.Run("non inspector without selection", func(t *testing.T) {
		_, _, err := ResolveSelection(Selection{VehicleID: vehicle.ID}, vehicles, inspectors, admin)
		field, ok := IsMissingSelection(err)
		assert.True(t, ok)
		assert.Equal(t, SelectionInspector, field)
		assert.True(t, IsErrorCode(err, EINVALID))
	})

	t.Run("profile found by id", func(t *testing.T) {
		profile := &Profile{ID: carla.ID, FirstName: "Outro", Role: RoleInspector}
		_, in, err := ResolveSelection(Selection{VehicleID: vehicle.ID}, vehicles, inspectors, profile)
		require.NoError(t, err)
		assert.Same(t, carla, in)
	})

	t.Run("profile found by name", func(t *testing.T) {
		profile := &Profile{ID: uuid.New(), FirstName: "joao", LastName: "PEREIRA", Role: RoleInspector}
		_, in, err := ResolveSelection(Selection{VehicleID: vehicle.ID}, vehicles, inspectors, profile)
		require.NoError(t, err)
		assert.Same(t, joao, in)
	})

	t.Run("profile synthesized", func(t *testing.T) {
		profile := &Profile{ID: uuid.New(), FirstName: "Ana", LastName: "Silva", Role: RoleInspector}
		_, in, err := ResolveSelection(Selection{VehicleID: vehicle.ID}, vehicles, nil, profile)
		require.NoError(t, err)
		assert.Equal(t, &Inspector{ID: profile.ID, FirstName: "Ana", LastName: "Silva"}, in)
		assert.Equal(t, "Ana Silva", in.FullName())
	})

	t.Run("unknown inspector id is not replaced by profile", func(t *testing.T) {
		profile := &Profile{ID: joao.ID, Role: RoleInspector}
		_, in, err := ResolveSelection(Selection{VehicleID: vehicle.ID, InspectorID: uuid.New()}, vehicles, inspectors, profile)
		assert.Nil(t, in)
		field, ok := IsMissingSelection(err)
		require.True(t, ok)
		assert.Equal(t, SelectionInspector, field)
	})

	t.Run("nil profile", func(t *testing.T) {
		_, _, err := ResolveSelection(Selection{VehicleID: vehicle.ID}, vehicles, inspectors, nil)
		field, _ := IsMissingSelection(err)
		assert.Equal(t, SelectionInspector, field)
	})
}

func TestReorderRange(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	current := map[uuid.UUID]int{a: 4, b: 5, c: 6}

	got, err := ReorderRange(current, []uuid.UUID{c, a, b})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{c: 4, a: 5, b: 6}, got)

	_, err = ReorderRange(current, []uuid.UUID{a, uuid.New()})
	assert.True(t, IsErrorCode(err, EINVALID))

	_, err = ReorderRange(current, []uuid.UUID{a, a})
	assert.True(t, IsErrorCode(err, EINVALID))

	_, err = ReorderRange(current, nil)
	assert.Error(t, err)
}

func TestInspectionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, InspectionStatusDraft.CanTransitionTo(InspectionStatusCompleted))
	assert.True(t, InspectionStatusDraft.CanTransitionTo(InspectionStatusCancelled))
	assert.False(t, InspectionStatusDraft.CanTransitionTo(InspectionStatusReviewed))
	assert.True(t, InspectionStatusCompleted.CanTransitionTo(InspectionStatusReviewed))
	assert.False(t, InspectionStatusReviewed.CanTransitionTo(InspectionStatusDraft))
	assert.False(t, InspectionStatusCancelled.CanTransitionTo(InspectionStatusCompleted))
	assert.True(t, InspectionStatusDraft.IsEditable())
	assert.False(t, InspectionStatusCompleted.IsEditable())
}
