package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes for the server.
// All routes are defined in this single file for easy navigation.
func (s *Server) registerRoutes() {
	// Health check routes (public)
	s.echo.GET("/health", s.handleHealthCheck)
	s.echo.GET("/health/live", s.handleLivenessCheck)
	s.echo.GET("/health/ready", s.handleReadinessCheck)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// Everything else needs a profile from the gateway.
	api := s.echo.Group("/api")
	api.Use(s.ProfileMiddleware())

	api.GET("/me", s.handleMe)
	api.PUT("/me/company", s.handleUpdateCompany)
	api.GET("/inspectors", s.handleListInspectors)

	// Vehicles
	api.GET("/vehicles", s.handleListVehicles)
	api.POST("/vehicles", s.handleCreateVehicle)
	api.GET("/vehicles/:id", s.handleGetVehicle)
	api.PUT("/vehicles/:id", s.handleUpdateVehicle)
	api.DELETE("/vehicles/:id", s.handleDeleteVehicle)

	// Vehicle categories
	api.GET("/categories", s.handleListCategories)
	api.GET("/categories/:code/items", s.handleListCategoryItems)

	// Checklist items
	api.GET("/checklist-items", s.handleListChecklistItems)
	api.GET("/checklist-items/:id", s.handleGetChecklistItem)
	editor := s.RequireChecklistEditor()
	api.POST("/checklist-items", s.handleCreateChecklistItem, editor)
	api.PUT("/checklist-items/:id", s.handleUpdateChecklistItem, editor)
	api.DELETE("/checklist-items/:id", s.handleDeactivateChecklistItem, editor)
	api.POST("/checklist-items/reorder", s.handleReorderChecklistItems, editor)
	api.GET("/checklist-items/collisions", s.handleListKeyCollisions, editor)

	// Inspections
	api.GET("/inspections", s.handleListInspections)
	api.POST("/inspections", s.handleCreateInspection)
	api.GET("/inspections/:id", s.handleGetInspection)
	api.PATCH("/inspections/:id", s.handleUpdateInspection)
	api.PUT("/inspections/:id/answers/:key", s.handleSetAnswer)
	api.PUT("/inspections/:id/status", s.handleUpdateInspectionStatus)
	api.POST("/inspections/:id/uploads/:kind", s.handleUploadInspectionFile)

	// Reports
	api.GET("/inspections/:id/report", s.handleReportPreview)
	limit := s.reportLimit.Middleware()
	api.GET("/inspections/:id/report.pdf", s.handleReportPDF, limit)
	api.POST("/inspections/:id/report", s.handleGenerateReport, limit)
	api.POST("/inspections/:id/report/capture", s.handleCaptureReport, limit)
	api.POST("/inspections/:id/submit", s.handleSubmitInspection, limit)
	api.POST("/reports/regenerate", s.handleRegenerateReports, editor, limit)
	api.GET("/reports/batches/:id", s.handleGetRegenerationBatch, editor)
}
