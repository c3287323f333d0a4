package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to GOOSE_DBSTRING, migrates and empties the tables.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	connString := os.Getenv("GOOSE_DBSTRING")
	if connString == "" {
		t.Skip("GOOSE_DBSTRING not set, skipping integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migrations.Up(pool, logger))

	truncate := func() {
		_, _ = pool.Exec(ctx, `TRUNCATE report_jobs, inspections, checklist_items, vehicles, profiles`)
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		pool.Close()
	})

	return NewDB(pool, logger, Options{CategoryCacheTTL: time.Minute})
}

func createVehicle(t *testing.T, db *DB, plate, category string) *fleetcheck.Vehicle {
	t.Helper()
	v := &fleetcheck.Vehicle{Model: "Hilux", Plate: plate, Year: 2022, Category: category}
	require.NoError(t, db.VehicleService.CreateVehicle(context.Background(), v))
	return v
}

func TestVehicleService(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	v := createVehicle(t, db, "abc1d23", "Carro")
	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, "ABC1D23", v.Plate)

	err := db.VehicleService.CreateVehicle(ctx, &fleetcheck.Vehicle{Model: "Gol", Plate: "ABC1D23"})
	assert.Equal(t, fleetcheck.ECONFLICT, fleetcheck.ErrorCode(err))

	model := "Hilux SRV"
	updated, err := db.VehicleService.UpdateVehicle(ctx, v.ID, fleetcheck.VehicleUpdate{Model: &model})
	require.NoError(t, err)
	assert.Equal(t, "Hilux SRV", updated.Model)

	createVehicle(t, db, "XYZ9A87", "Caminhão")
	plate := "xyz"
	found, total, err := db.VehicleService.FindVehicles(ctx, fleetcheck.VehicleFilter{Plate: &plate})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "XYZ9A87", found[0].Plate)

	require.NoError(t, db.VehicleService.DeleteVehicle(ctx, v.ID))
	_, err = db.VehicleService.FindVehicleByID(ctx, v.ID)
	assert.Equal(t, fleetcheck.ENOTFOUND, fleetcheck.ErrorCode(err))
}

func TestProfileService_FindInspectors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.Pool().Exec(ctx, `
		INSERT INTO profiles (first_name, last_name, role) VALUES
			('Bruno', 'Costa', 'inspector'),
			('Ana', 'Silva', 'inspector'),
			('Carla', 'Dias', 'admin')`)
	require.NoError(t, err)

	inspectors, err := db.ProfileService.FindInspectors(ctx)
	require.NoError(t, err)
	require.Len(t, inspectors, 2)
	assert.Equal(t, "Ana Silva", inspectors[0].FullName())
	assert.Equal(t, "Bruno Costa", inspectors[1].FullName())
}

func TestCategoryService_Label(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	label, err := db.CategoryService.CategoryLabel(ctx, "caminhao")
	require.NoError(t, err)
	assert.Equal(t, "Caminhão", label)

	label, err = db.CategoryService.CategoryLabel(ctx, "submarino")
	require.NoError(t, err)
	assert.Equal(t, "submarino", label)
}

func TestChecklistItemService_CreateAndReorder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var ids []uuid.UUID
	for _, name := range []string{"Pneus", "Estepe", "Extintor"} {
		item := &fleetcheck.ChecklistItem{Name: name, Category: "carro"}
		require.NoError(t, db.ChecklistItemService.CreateChecklistItem(ctx, item))
		ids = append(ids, item.ID)
	}

	err := db.ChecklistItemService.CreateChecklistItem(ctx, &fleetcheck.ChecklistItem{Name: "???", Category: "carro"})
	assert.Equal(t, fleetcheck.EINVALID, fleetcheck.ErrorCode(err))

	items, err := db.ChecklistItemService.FindItemsForCategory(ctx, "carro")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{items[0].Order, items[1].Order, items[2].Order})

	// Move Extintor ahead of Estepe.
	require.NoError(t, db.ChecklistItemService.ReorderChecklistItems(ctx, "carro", []uuid.UUID{ids[2], ids[1]}))
	items, err = db.ChecklistItemService.FindItemsForCategory(ctx, "carro")
	require.NoError(t, err)
	assert.Equal(t, "Pneus", items[0].Name)
	assert.Equal(t, "Extintor", items[1].Name)
	assert.Equal(t, "Estepe", items[2].Name)

	err = db.ChecklistItemService.ReorderChecklistItems(ctx, "caminhao", []uuid.UUID{ids[0]})
	assert.Equal(t, fleetcheck.EINVALID, fleetcheck.ErrorCode(err))

	require.NoError(t, db.ChecklistItemService.DeactivateChecklistItem(ctx, ids[0]))
	items, err = db.ChecklistItemService.FindItemsForCategory(ctx, "carro")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestChecklistItemService_FallsBackToCategoryTag(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Items filed under the seeded unique_id of "caminhao".
	item := &fleetcheck.ChecklistItem{Name: "Tacógrafo", Category: "veiculo_pesado"}
	require.NoError(t, db.ChecklistItemService.CreateChecklistItem(ctx, item))

	items, err := db.ChecklistItemService.FindItemsForCategory(ctx, "caminhao")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tacógrafo", items[0].Name)

	items, err = db.ChecklistItemService.FindItemsForCategory(ctx, "retroescavadeira")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInspectionService_AnswersAndLegacyColumns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	v := createVehicle(t, db, "QWE1R23", "carro")

	in := &fleetcheck.Inspection{
		VehicleID: v.ID,
		Answers: fleetcheck.AnswerMap{
			"pneus": {Status: fleetcheck.StatusConforming},
		},
	}
	require.NoError(t, db.InspectionService.CreateInspection(ctx, in))
	assert.Equal(t, fleetcheck.InspectionStatusDraft, in.Status)

	updated, err := db.InspectionService.SetAnswer(ctx, in.ID, "tacografo",
		fleetcheck.Answer{Status: fleetcheck.StatusNeedsReview, Observation: "lacre rompido"})
	require.NoError(t, err)
	assert.Equal(t, fleetcheck.StatusConforming, updated.Answers["pneus"].Status)
	assert.Equal(t, "lacre rompido", updated.Answers["tacografo"].Observation)

	var pneus string
	require.NoError(t, db.Pool().QueryRow(ctx, `SELECT pneus FROM inspections WHERE id = $1`, in.ID).Scan(&pneus))
	assert.Equal(t, "conforme", pneus)

	_, err = db.InspectionService.SetAnswer(ctx, in.ID, "pneus", fleetcheck.Answer{Status: fleetcheck.StatusOK})
	assert.Equal(t, fleetcheck.EINVALID, fleetcheck.ErrorCode(err))
}

func TestInspectionService_HydratesLegacyRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	v := createVehicle(t, db, "LEG4C00", "carro")

	var id uuid.UUID
	require.NoError(t, db.Pool().QueryRow(ctx, `
		INSERT INTO inspections (vehicle_id, answers, pneus, extintor)
		VALUES ($1, '{"extintor": "faltando"}', 'ok', 'ok')
		RETURNING id`, v.ID).Scan(&id))

	in, err := db.InspectionService.FindInspectionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fleetcheck.StatusOK, in.Answers["pneus"].Status)
	assert.Equal(t, fleetcheck.StatusMissing, in.Answers["extintor"].Status)
}

func TestInspectionService_StatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	v := createVehicle(t, db, "STA7U50", "carro")

	in := &fleetcheck.Inspection{VehicleID: v.ID}
	require.NoError(t, db.InspectionService.CreateInspection(ctx, in))

	_, err := db.InspectionService.UpdateInspectionStatus(ctx, in.ID, fleetcheck.InspectionStatusReviewed)
	assert.Equal(t, fleetcheck.EINVALID, fleetcheck.ErrorCode(err))

	done, err := db.InspectionService.UpdateInspectionStatus(ctx, in.ID, fleetcheck.InspectionStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, fleetcheck.InspectionStatusCompleted, done.Status)

	notes := "late edit"
	_, err = db.InspectionService.UpdateInspection(ctx, in.ID, fleetcheck.InspectionUpdate{AdditionalNotes: &notes})
	assert.Equal(t, fleetcheck.EINVALID, fleetcheck.ErrorCode(err))

	require.NoError(t, db.InspectionService.SetReportURL(ctx, in.ID, "http://x/r.pdf"))
	got, err := db.InspectionService.FindInspectionByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, "http://x/r.pdf", got.ReportURL)

	status := fleetcheck.InspectionStatusCompleted
	list, total, err := db.InspectionService.FindInspections(ctx, fleetcheck.InspectionFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)
}

func TestInspectionService_UnknownVehicle(t *testing.T) {
	db := setupTestDB(t)
	err := db.InspectionService.CreateInspection(context.Background(), &fleetcheck.Inspection{VehicleID: uuid.New()})
	assert.Equal(t, fleetcheck.ENOTFOUND, fleetcheck.ErrorCode(err))
}
