package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/service"
)

// ImportHandler handles document import and review endpoints.
type ImportHandler struct {
	uploadService service.UploadService
	reviewService service.ReviewService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(uploadService service.UploadService, reviewService service.ReviewService) *ImportHandler {
	return &ImportHandler{uploadService: uploadService, reviewService: reviewService}
}

// Upload handles POST /api/v1/imports. It accepts a single PDF or several
// page images under the "files" field and answers 202 once the batch is
// queued.
func (h *ImportHandler) Upload(c *gin.Context) {
	tenantID, userID, ok := extractAuthContext(c)
	if !ok {
		return
	}

	kind := domain.ImportKind(c.PostForm("kind"))
	if kind != domain.ImportKindInvoice && kind != domain.ImportKindSalesReport {
		RespondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be invoice or sales_report")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "at least one file is required")
		return
	}

	batch, err := h.uploadService.Upload(c.Request.Context(), service.UploadInput{
		TenantID:   tenantID,
		UploadedBy: userID,
		Kind:       kind,
		Files:      files,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, batch)
}

// List handles GET /api/v1/imports
func (h *ImportHandler) List(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	offset, limit := paginationParams(c)

	var kind *domain.ImportKind
	if k := c.Query("kind"); k != "" {
		parsed := domain.ImportKind(k)
		if parsed != domain.ImportKindInvoice && parsed != domain.ImportKindSalesReport {
			RespondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be invoice or sales_report")
			return
		}
		kind = &parsed
	}

	batches, total, err := h.reviewService.ListBatches(c.Request.Context(), tenantID, kind, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, batches, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/imports/:id
func (h *ImportHandler) Get(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	detail, err := h.reviewService.GetBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, detail)
}

// SourceURL handles GET /api/v1/imports/:id/source-url
func (h *ImportHandler) SourceURL(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	url, err := h.reviewService.GetSourceURL(c.Request.Context(), tenantID, batchID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Suggestions handles GET /api/v1/imports/lines/:lineId/suggestions
func (h *ImportHandler) Suggestions(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	lineID, ok := pathUUID(c, "lineId")
	if !ok {
		return
	}

	suggestions, err := h.reviewService.GetSuggestions(c.Request.Context(), tenantID, lineID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, suggestions)
}

type manualMatchRequest struct {
	ItemID  uuid.UUID `json:"item_id" binding:"required"`
	Version int       `json:"version" binding:"required"`
}

// ManualMatch handles PUT /api/v1/imports/lines/:lineId/match
func (h *ImportHandler) ManualMatch(c *gin.Context) {
	tenantID, userID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	lineID, ok := pathUUID(c, "lineId")
	if !ok {
		return
	}

	var req manualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	line, err := h.reviewService.ManualMatch(c.Request.Context(), service.ManualMatchInput{
		TenantID:        tenantID,
		UserID:          userID,
		LineID:          lineID,
		ItemID:          req.ItemID,
		ExpectedVersion: req.Version,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, line)
}

// Approve handles POST /api/v1/imports/:id/approve
func (h *ImportHandler) Approve(c *gin.Context) {
	tenantID, userID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	result, err := h.reviewService.Approve(c.Request.Context(), tenantID, userID, batchID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// Reject handles DELETE /api/v1/imports/:id and its POST /reject alias.
func (h *ImportHandler) Reject(c *gin.Context) {
	tenantID, userID, ok := extractAuthContext(c)
	if !ok {
		return
	}
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Reject(c.Request.Context(), tenantID, userID, batchID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": string(domain.BatchStatusRejected)})
}

// Retry handles POST /api/v1/imports/:id/retry
func (h *ImportHandler) Retry(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Retry(c.Request.Context(), tenantID, batchID); err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"status": string(domain.BatchStatusPending)})
}

// Overview handles GET /api/v1/imports/overview
func (h *ImportHandler) Overview(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	overview, err := h.reviewService.GetOverview(c.Request.Context(), tenantID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, overview)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func paginationParams(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}
