package validationapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rvdzwet/invoice-validator-sub003/internal/reports"
	"github.com/rvdzwet/invoice-validator-sub003/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches validation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/validations", h.validate)
	rg.GET("/validations", h.list)
	rg.GET("/validations/:id", h.get)
}

func (h *Handler) validate(c *gin.Context) {
	if h.Svc.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.Svc.MaxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	report, err := h.Svc.Validate(c.Request.Context(), fileHeader.Filename, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to validate document", nil)
		}
		return
	}

	c.Set("validationId", report.ID)
	c.Set("outcome", string(report.Outcome))
	respond.Created(c, toResponse(report))
}

func (h *Handler) get(c *gin.Context) {
	report, err := h.Svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "validation not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch validation", nil)
		}
		return
	}

	c.Set("validationId", report.ID)
	respond.OK(c, toResponse(report))
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	list, err := h.Svc.ListReports(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list validations", nil)
		return
	}

	out := make([]ValidationSummaryResponse, 0, len(list))
	for _, report := range list {
		out = append(out, toSummaryResponse(report))
	}
	respond.OK(c, gin.H{"validations": out})
}
