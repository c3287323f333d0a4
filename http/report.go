package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/queue"
	"github.com/dukerupert/fleetcheck/internal/templates"
	"github.com/dukerupert/fleetcheck/pdf"
	"github.com/dukerupert/fleetcheck/report"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// maxCaptureSize caps uploaded preview screenshots.
const maxCaptureSize = 32 << 20

// loadForReport loads the inspection and the signed-in profile.
func (s *Server) loadForReport(c echo.Context) (*fleetcheck.Inspection, *fleetcheck.Profile, error) {
	profile, err := requireProfile(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	inspection, err := s.inspectionService.FindInspectionByID(c.Request().Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return inspection, profile, nil
}

// handleReportPreview renders the report as HTML, or as the composed
// document when JSON is requested. Preview and PDF share one context.
func (s *Server) handleReportPreview(c echo.Context) error {
	ctx, cancel := s.withReportTimeout(c)
	defer cancel()

	inspection, profile, err := s.loadForReport(c)
	if err != nil {
		return err
	}

	rc, err := s.reportService.BuildContext(ctx, inspection, profile)
	if err != nil {
		return err
	}
	doc := report.Compose(rc, s.reportStrings)

	if c.Request().Header.Get(echo.HeaderAccept) == echo.MIMEApplicationJSON || s.echo.Renderer == nil {
		return RespondOK(c, doc)
	}

	base := "/api/inspections/" + inspection.ID.String()
	return c.Render(http.StatusOK, "report.html", templates.ReportPage{
		Document: doc,
		PDFURL:   base + "/report.pdf?download=true",
		StoreURL: base + "/report",
	})
}

// handleReportPDF streams the rendered PDF without storing it.
func (s *Server) handleReportPDF(c echo.Context) error {
	ctx, cancel := s.withReportTimeout(c)
	defer cancel()

	inspection, profile, err := s.loadForReport(c)
	if err != nil {
		return err
	}

	data, err := s.reportService.RenderPDF(ctx, inspection, profile)
	if err != nil {
		return err
	}

	return PDF(c, reportFilename(inspection.ID), data, c.QueryParam("download") == "true")
}

// handleGenerateReport renders, stores and links the report.
func (s *Server) handleGenerateReport(c echo.Context) error {
	ctx, cancel := s.withReportTimeout(c)
	defer cancel()

	profile, err := requireProfile(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	generated, err := s.reportService.GenerateReport(ctx, id, profile)
	if err != nil {
		return err
	}

	s.log(c).Info("report generated",
		slog.String("inspection_id", id.String()),
		slog.Int("pages", generated.Pages),
	)
	return RespondCreated(c, generated)
}

// handleCaptureReport turns a screenshot of the live preview into a
// paginated PDF and stores it as the inspection's report.
func (s *Server) handleCaptureReport(c echo.Context) error {
	ctx, cancel := s.withReportTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return fleetcheck.Invalid("image is required")
	}
	if fh.Size > maxCaptureSize {
		return fleetcheck.Invalid("Capture exceeds maximum size of %d MB", maxCaptureSize>>20)
	}
	src, err := fh.Open()
	if err != nil {
		return fleetcheck.Internal("Failed to read capture", err)
	}
	defer src.Close()

	opts := pdf.DefaultCaptureOptions()
	img, err := pdf.DecodeCapture(src, maxCaptureSize, opts.MaxPixels)
	if errors.Is(err, pdf.ErrImageTooLarge) {
		return fleetcheck.Invalid("Capture dimensions exceed %d pixels", opts.MaxPixels)
	}
	if err != nil {
		return fleetcheck.Invalid("Capture is not a readable image")
	}

	opts.Title = s.reportStrings.DocumentTitle
	out, err := pdf.RenderCapture(img, opts)
	if err != nil {
		return fleetcheck.Internal("Failed to render capture", err)
	}

	generated, err := s.reportService.StoreReport(ctx, id, out.Data, out.Pages)
	if err != nil {
		return err
	}

	s.log(c).Info("report captured",
		slog.String("inspection_id", id.String()),
		slog.Int("pages", out.Pages),
	)
	return RespondCreated(c, generated)
}

// handleSubmitInspection completes a draft and stores its report. When
// the vehicle or inspector is missing the draft is left untouched and the
// error names the missing selection.
func (s *Server) handleSubmitInspection(c echo.Context) error {
	ctx, cancel := s.withReportTimeout(c)
	defer cancel()

	profile, err := requireProfile(c)
	if err != nil {
		return err
	}
	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}

	generated, err := s.reportService.SubmitInspection(ctx, id, profile)
	if err != nil {
		if field, ok := fleetcheck.IsMissingSelection(err); ok {
			s.log(c).Info("submit blocked by missing selection",
				slog.String("inspection_id", id.String()),
				slog.String("field", field))
		}
		return err
	}

	s.log(c).Info("inspection submitted", slog.String("inspection_id", id.String()))
	return RespondCreated(c, generated)
}

// RegenerateReportsRequest lists the inspections to regenerate.
type RegenerateReportsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
}

// handleRegenerateReports regenerates reports one inspection at a time.
// Partial results are returned when the request is cancelled midway. With
// async=true the inspections are queued instead and the batch is returned.
func (s *Server) handleRegenerateReports(c echo.Context) error {
	profile, err := requireProfile(c)
	if err != nil {
		return err
	}

	var req RegenerateReportsRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ids := make([]uuid.UUID, len(req.IDs))
	for i, raw := range req.IDs {
		if ids[i], err = parseUUID(raw); err != nil {
			return err
		}
	}

	if c.QueryParam("async") == "true" {
		return s.enqueueRegeneration(c, profile, ids)
	}

	result, err := s.reportService.RegenerateReports(c.Request().Context(), ids, profile)
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		s.log(c).Warn("regeneration stopped early", slog.String("error", err.Error()))
	}

	s.log(c).Info("reports regenerated",
		slog.Int("succeeded", result.Succeeded),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)
	return RespondOK(c, result)
}

func (s *Server) enqueueRegeneration(c echo.Context, profile *fleetcheck.Profile, ids []uuid.UUID) error {
	if s.jobs == nil {
		return fleetcheck.Invalid("Background regeneration is not enabled")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	batchID, jobs, err := queue.EnqueueRegeneration(ctx, s.jobs, profile.ID, ids)
	if err != nil {
		return fleetcheck.Internal("Failed to queue regeneration", err)
	}

	s.log(c).Info("report regeneration queued",
		slog.String("batch_id", batchID.String()),
		slog.Int("jobs", len(jobs)),
	)
	return c.JSON(http.StatusAccepted, queue.Summarize(batchID, jobs))
}

// handleGetRegenerationBatch reports the progress of a queued batch.
func (s *Server) handleGetRegenerationBatch(c echo.Context) error {
	if s.jobs == nil {
		return fleetcheck.NotFound("Batch not found")
	}
	ctx, cancel := withTimeout(c)
	defer cancel()

	batchID, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}
	jobs, err := s.jobs.FindJobs(ctx, queue.JobFilter{BatchID: &batchID})
	if err != nil {
		return fleetcheck.Internal("Failed to load batch", err)
	}
	if len(jobs) == 0 {
		return fleetcheck.NotFound("Batch not found")
	}
	return RespondOK(c, queue.Summarize(batchID, jobs))
}

func reportFilename(id uuid.UUID) string {
	return fmt.Sprintf("relatorio-%s.pdf", id.String()[:8])
}
