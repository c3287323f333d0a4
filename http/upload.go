package http

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/dukerupert/fleetcheck"
	"github.com/dukerupert/fleetcheck/internal/validation"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Upload kinds accepted on an inspection.
const (
	UploadInterior  = "interior"
	UploadExterior  = "exterior"
	UploadSignature = "signature"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// handleUploadInspectionFile stores a photo or the signature of a draft
// inspection and records its URL. The previous file, if any, is removed.
func (s *Server) handleUploadInspectionFile(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	id, err := requireUUIDParam(c, "id")
	if err != nil {
		return err
	}
	kind := c.Param("kind")

	inspection, err := s.inspectionService.FindInspectionByID(ctx, id)
	if err != nil {
		return err
	}
	if !inspection.Status.IsEditable() {
		return fleetcheck.Invalid("Inspection is %s and can no longer be edited", inspection.Status)
	}

	var previous string
	var upd fleetcheck.InspectionUpdate
	switch kind {
	case UploadInterior:
		previous = inspection.InteriorPhotoURL
	case UploadExterior:
		previous = inspection.ExteriorPhotoURL
	case UploadSignature:
		previous = inspection.SignatureURL
	default:
		return fleetcheck.Invalid("Upload kind must be interior, exterior or signature")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fleetcheck.Invalid("file is required")
	}
	if err := validation.ValidateFileUpload(fh, fleetcheck.MaxUploadSize, fleetcheck.AcceptedImageTypes); err != nil {
		return err
	}
	contentType := fh.Header.Get("Content-Type")

	src, err := fh.Open()
	if err != nil {
		return fleetcheck.Internal("Failed to read uploaded file", err)
	}
	defer src.Close()

	key := path.Join("inspections", id.String(), kind+"-"+uuid.NewString()+imageExtensions[contentType])
	url, err := s.fileStorage.Upload(ctx, key, src, contentType)
	if err != nil {
		s.log(c).Error("failed to upload file", slog.String("error", err.Error()))
		return fleetcheck.Internal("Failed to upload file", err)
	}

	switch kind {
	case UploadInterior:
		upd.InteriorPhotoURL = &url
	case UploadExterior:
		upd.ExteriorPhotoURL = &url
	case UploadSignature:
		upd.SignatureURL = &url
	}

	updated, err := s.inspectionService.UpdateInspection(ctx, id, upd)
	if err != nil {
		// Clean up uploaded file on error
		_ = s.fileStorage.Delete(context.WithoutCancel(ctx), key)
		return err
	}

	if old, ok := s.fileStorage.KeyFromURL(previous); ok && !strings.EqualFold(old, key) {
		if err := s.fileStorage.Delete(ctx, old); err != nil {
			s.log(c).Warn("failed to delete replaced file",
				slog.String("key", old),
				slog.String("error", err.Error()))
		}
	}

	s.log(c).Info("inspection file uploaded",
		slog.String("inspection_id", id.String()),
		slog.String("kind", kind),
	)
	return RespondOK(c, updated)
}
