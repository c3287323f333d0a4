package reporting

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/mock"
	"github.com/dukerupert/fleetcheck/pdf"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

type fixture struct {
	svc         *Service
	inspections *mock.InspectionService
	vehicles    *mock.VehicleService
	profiles    *mock.ProfileService
	categories  *mock.CategoryService
	items       *mock.ChecklistItemService
	storage     *mock.FileStorage

	vehicle     *fleetcheck.Vehicle
	inspector   *fleetcheck.Inspector
	byID        map[uuid.UUID]*fleetcheck.Inspection
	groups      []string
	uploads     []string
	reportURLs  map[uuid.UUID]string
	statusCalls []fleetcheck.InspectionStatus
	mu          sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		vehicle:    &fleetcheck.Vehicle{ID: uuid.New(), Model: "Gol", Plate: "ABC1D23", Year: 2020, Category: "carro"},
		inspector:  &fleetcheck.Inspector{ID: uuid.New(), FirstName: "Carla", LastName: "Souza"},
		byID:       make(map[uuid.UUID]*fleetcheck.Inspection),
		reportURLs: make(map[uuid.UUID]string),
	}

	f.inspections = &mock.InspectionService{
		FindInspectionByIDFn: func(ctx context.Context, id uuid.UUID) (*fleetcheck.Inspection, error) {
			if insp, ok := f.byID[id]; ok {
				return insp, nil
			}
			return nil, fleetcheck.NotFound("Inspection not found")
		},
		UpdateInspectionStatusFn: func(ctx context.Context, id uuid.UUID, status fleetcheck.InspectionStatus) (*fleetcheck.Inspection, error) {
			f.statusCalls = append(f.statusCalls, status)
			insp := f.byID[id]
			insp.Status = status
			return insp, nil
		},
		SetReportURLFn: func(ctx context.Context, id uuid.UUID, url string) error {
			f.reportURLs[id] = url
			return nil
		},
	}
	f.vehicles = &mock.VehicleService{
		FindVehicleByIDFn: func(ctx context.Context, id uuid.UUID) (*fleetcheck.Vehicle, error) {
			if id == f.vehicle.ID {
				return f.vehicle, nil
			}
			return nil, fleetcheck.NotFound("Vehicle not found")
		},
	}
	f.profiles = &mock.ProfileService{
		FindInspectorsFn: func(ctx context.Context) ([]*fleetcheck.Inspector, error) {
			return []*fleetcheck.Inspector{f.inspector}, nil
		},
	}
	f.categories = &mock.CategoryService{
		CategoryLabelFn: func(ctx context.Context, code string) (string, error) {
			return "Carro / Moto", nil
		},
	}
	f.items = &mock.ChecklistItemService{
		FindItemsForCategoryFn: func(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error) {
			f.groups = append(f.groups, group)
			return []*fleetcheck.ChecklistItem{
				{ID: uuid.New(), Name: "Pneus", Category: "exterior", Order: 2, Active: true},
				{ID: uuid.New(), Name: "Luzes Internas", Category: "interior", Order: 1, Active: true},
			}, nil
		},
	}
	f.storage = &mock.FileStorage{
		UploadFn: func(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, "application/pdf", contentType)
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
			f.mu.Lock()
			f.uploads = append(f.uploads, key)
			f.mu.Unlock()
			return "https://files.example.com/" + key, nil
		},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, Config{})
	svc.InspectionService = f.inspections
	svc.VehicleService = f.vehicles
	svc.ProfileService = f.profiles
	svc.CategoryService = f.categories
	svc.ChecklistItemService = f.items
	svc.FileStorage = f.storage
	svc.Renderer = pdf.NewRenderer(nil, pdf.DefaultConfig(), logger)
	svc.Metrics = NewMetrics(prometheus.NewRegistry())
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func (f *fixture) addInspection(mut ...func(*fleetcheck.Inspection)) *fleetcheck.Inspection {
	insp := &fleetcheck.Inspection{
		ID:             uuid.New(),
		VehicleID:      f.vehicle.ID,
		InspectorID:    f.inspector.ID,
		InspectionDate: fixedNow,
		Status:         fleetcheck.InspectionStatusDraft,
		Answers: fleetcheck.AnswerMap{
			"luzes_internas": {Status: fleetcheck.StatusFunctioning},
		},
	}
	for _, m := range mut {
		m(insp)
	}
	f.byID[insp.ID] = insp
	return insp
}

func TestService_BuildContext(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection()
	profile := &fleetcheck.Profile{ID: uuid.New(), Role: fleetcheck.RoleAdmin, Company: fleetcheck.Company{Name: "Transportes Sul"}}

	rc, err := f.svc.BuildContext(context.Background(), insp, profile)
	require.NoError(t, err)

	assert.Same(t, f.vehicle, rc.Vehicle)
	assert.Same(t, f.inspector, rc.Inspector)
	assert.Equal(t, "Transportes Sul", rc.Issuer.Name)
	assert.Equal(t, "Carro / Moto", rc.CategoryLabel)
	assert.Equal(t, []string{fleetcheck.GroupCar}, f.groups)
	require.Len(t, rc.Items, 2)
	assert.Equal(t, "Luzes Internas", rc.Items[0].Name, "items are sorted by order")
	assert.Equal(t, fixedNow, rc.GeneratedAt)

	rc.Answers["pneus"] = fleetcheck.Answer{Status: fleetcheck.StatusMissing}
	assert.NotContains(t, insp.Answers, "pneus", "context answers are a copy")
}

func TestService_BuildContext_GroupResolution(t *testing.T) {
	f := newFixture(t)
	f.vehicle.Category = "CAMINHÃO"
	insp := f.addInspection()

	_, err := f.svc.BuildContext(context.Background(), insp, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{fleetcheck.GroupTruck}, f.groups)

	f.vehicle.Category = "submarino"
	_, err = f.svc.BuildContext(context.Background(), insp, nil)
	require.NoError(t, err)
	assert.Equal(t, fleetcheck.GroupCar, f.groups[1])
}

func TestService_BuildContext_MissingVehicle(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection(func(i *fleetcheck.Inspection) { i.VehicleID = uuid.Nil })

	_, err := f.svc.BuildContext(context.Background(), insp, nil)

	field, ok := fleetcheck.IsMissingSelection(err)
	require.True(t, ok)
	assert.Equal(t, fleetcheck.SelectionVehicle, field)
	assert.Empty(t, f.groups, "items are not loaded without a vehicle")
}

func TestService_BuildContext_InspectorFromProfile(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection(func(i *fleetcheck.Inspection) { i.InspectorID = uuid.Nil })
	profile := &fleetcheck.Profile{ID: uuid.New(), FirstName: "Ana", LastName: "Silva", Role: fleetcheck.RoleInspector}

	rc, err := f.svc.BuildContext(context.Background(), insp, profile)
	require.NoError(t, err)
	assert.Equal(t, "Ana", rc.Inspector.FirstName)
	assert.Equal(t, "Silva", rc.Inspector.LastName)

	_, err = f.svc.BuildContext(context.Background(), insp, &fleetcheck.Profile{Role: fleetcheck.RoleEditor})
	field, _ := fleetcheck.IsMissingSelection(err)
	assert.Equal(t, fleetcheck.SelectionInspector, field)
}

func TestService_BuildContext_CategoryLabelFallback(t *testing.T) {
	f := newFixture(t)
	f.categories.CategoryLabelFn = func(ctx context.Context, code string) (string, error) {
		return "", errors.New("connection refused")
	}
	insp := f.addInspection()

	rc, err := f.svc.BuildContext(context.Background(), insp, nil)
	require.NoError(t, err)
	assert.Equal(t, "carro", rc.CategoryLabel)
}

func TestService_BuildContext_ItemsError(t *testing.T) {
	f := newFixture(t)
	f.items.FindItemsForCategoryFn = func(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error) {
		return nil, fleetcheck.Internal("Failed to list checklist items", errors.New("timeout"))
	}
	insp := f.addInspection()

	_, err := f.svc.BuildContext(context.Background(), insp, nil)
	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.EINTERNAL))
}

func TestService_Compose_UncheckedItem(t *testing.T) {
	f := newFixture(t)
	f.items.FindItemsForCategoryFn = func(ctx context.Context, group string) ([]*fleetcheck.ChecklistItem, error) {
		return []*fleetcheck.ChecklistItem{{Name: "Pneus", Category: "exterior", Active: true}}, nil
	}
	insp := f.addInspection(func(i *fleetcheck.Inspection) { i.Answers = nil })

	doc, err := f.svc.Compose(context.Background(), insp, nil)
	require.NoError(t, err)

	checklist := doc.SectionsOf(report.SectionChecklist)
	require.Len(t, checklist, 1)
	require.Len(t, checklist[0].Items, 1)
	item := checklist[0].Items[0]
	assert.Equal(t, "Pneus", item.Name)
	assert.Equal(t, "Não verificado", item.Badge.Label)
	assert.Equal(t, report.ToneNeutral, item.Badge.Tone)
	assert.Empty(t, item.Observation)
}

func TestService_RenderPDF(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection()

	data, err := f.svc.RenderPDF(context.Background(), insp, nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Empty(t, f.uploads, "rendering does not store")
}

func TestService_GenerateReport(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection()

	rep, err := f.svc.GenerateReport(context.Background(), insp.ID, nil)
	require.NoError(t, err)

	wantKey := "reports/" + insp.ID.String() + "/20260309T143000.000Z.pdf"
	assert.Equal(t, wantKey, rep.Key)
	assert.Equal(t, []string{wantKey}, f.uploads)
	assert.Equal(t, "https://files.example.com/"+wantKey, rep.URL)
	assert.Equal(t, rep.URL, f.reportURLs[insp.ID])
	assert.GreaterOrEqual(t, rep.Pages, 1)
	assert.Greater(t, rep.Size, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics.generated.WithLabelValues(outcomeSuccess)))
}

func TestService_GenerateReport_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GenerateReport(context.Background(), uuid.New(), nil)
	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.ENOTFOUND))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.svc.Metrics.generated.WithLabelValues(outcomeFailure)))
}

func TestService_StoreReport_RemovesOrphan(t *testing.T) {
	f := newFixture(t)
	var deleted []string
	f.storage.DeleteFn = func(ctx context.Context, key string) error {
		deleted = append(deleted, key)
		return nil
	}
	f.inspections.SetReportURLFn = func(ctx context.Context, id uuid.UUID, url string) error {
		return fleetcheck.NotFound("Inspection not found")
	}
	id := uuid.New()

	_, err := f.svc.StoreReport(context.Background(), id, []byte("%PDF-1.3 test"), 1)

	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.ENOTFOUND))
	assert.Equal(t, f.uploads, deleted)
}

func TestService_StoreReport_Empty(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StoreReport(context.Background(), uuid.New(), nil, 0)
	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.EINVALID))
}

func TestService_SubmitInspection(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection()

	rep, err := f.svc.SubmitInspection(context.Background(), insp.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, []fleetcheck.InspectionStatus{fleetcheck.InspectionStatusCompleted}, f.statusCalls)
	assert.Equal(t, rep.URL, f.reportURLs[insp.ID])
}

func TestService_SubmitInspection_NotDraft(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection(func(i *fleetcheck.Inspection) { i.Status = fleetcheck.InspectionStatusReviewed })

	_, err := f.svc.SubmitInspection(context.Background(), insp.ID, nil)
	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.EINVALID))
	assert.Empty(t, f.statusCalls)
}

func TestService_SubmitInspection_MissingSelectionKeepsDraft(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection(func(i *fleetcheck.Inspection) { i.InspectorID = uuid.Nil })

	_, err := f.svc.SubmitInspection(context.Background(), insp.ID, nil)

	_, ok := fleetcheck.IsMissingSelection(err)
	assert.True(t, ok)
	assert.Empty(t, f.statusCalls)
	assert.Equal(t, fleetcheck.InspectionStatusDraft, insp.Status)
	assert.Empty(t, f.uploads)
}

func TestService_SubmitInspection_StorageFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	insp := f.addInspection()

	upload := f.storage.UploadFn
	f.storage.UploadFn = func(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
		return "", errors.New("bucket down")
	}

	_, err := f.svc.SubmitInspection(context.Background(), insp.ID, nil)
	require.Error(t, err)
	assert.True(t, fleetcheck.IsErrorCode(err, fleetcheck.EINTERNAL))
	assert.Empty(t, f.statusCalls)
	assert.Equal(t, fleetcheck.InspectionStatusDraft, insp.Status)
	assert.Empty(t, f.reportURLs[insp.ID])

	f.storage.UploadFn = upload
	rep, err := f.svc.SubmitInspection(context.Background(), insp.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, fleetcheck.InspectionStatusCompleted, insp.Status)
	assert.Equal(t, rep.URL, f.reportURLs[insp.ID])
}

func TestService_RegenerateReports(t *testing.T) {
	f := newFixture(t)
	a := f.addInspection()
	broken := f.addInspection(func(i *fleetcheck.Inspection) { i.VehicleID = uuid.Nil })
	c := f.addInspection()
	missing := uuid.New()

	var progress []int
	f.svc.OnBatchItem = func(index, total int, item fleetcheck.BatchItemResult) {
		assert.Equal(t, 5, total)
		progress = append(progress, index)
	}

	result, err := f.svc.RegenerateReports(context.Background(), []uuid.UUID{a.ID, broken.ID, c.ID, missing, a.ID}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Items, 5)
	assert.NotNil(t, result.Items[0].Report)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.NotNil(t, result.Items[2].Report)
	assert.NotEmpty(t, result.Items[3].Error)
	assert.Equal(t, "duplicate", result.Items[4].Error)
	assert.True(t, result.Items[4].Skipped)
	assert.False(t, result.Items[3].Skipped)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, progress)
	assert.Len(t, f.uploads, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.svc.Metrics.batch.WithLabelValues(outcomeSuccess)))
}

func TestService_RegenerateReports_Delay(t *testing.T) {
	f := newFixture(t)
	f.svc.config.BatchDelay = 30 * time.Millisecond
	ids := []uuid.UUID{f.addInspection().ID, f.addInspection().ID, f.addInspection().ID}

	start := time.Now()
	result, err := f.svc.RegenerateReports(context.Background(), ids, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Succeeded)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestService_RegenerateReports_Cancelled(t *testing.T) {
	f := newFixture(t)
	f.svc.config.BatchDelay = time.Hour
	ids := []uuid.UUID{f.addInspection().ID, f.addInspection().ID, f.addInspection().ID}

	ctx, cancel := context.WithCancel(context.Background())
	f.svc.OnBatchItem = func(index, total int, item fleetcheck.BatchItemResult) {
		if index == 0 {
			cancel()
		}
	}

	result, err := f.svc.RegenerateReports(ctx, ids, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "cancelled", result.Items[2].Error)
}

func TestReportKey(t *testing.T) {
	id := uuid.MustParse("7f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f")
	key := ReportKey("reports", id, time.Date(2026, 1, 2, 3, 4, 5, 600_000_000, time.FixedZone("BRT", -3*3600)))
	assert.Equal(t, "reports/7f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f/20260102T060405.600Z.pdf", key)
	assert.True(t, strings.HasSuffix(key, ".pdf"))
}
