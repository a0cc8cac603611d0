package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ledgerflow/internal/domain"
	"ledgerflow/internal/service"
)

// CatalogHandler handles catalog lookup endpoints.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// Search handles GET /api/v1/catalog
func (h *CatalogHandler) Search(c *gin.Context) {
	tenantID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	kind := domain.ImportKind(c.Query("kind"))
	if kind != domain.ImportKindInvoice && kind != domain.ImportKindSalesReport {
		RespondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be invoice or sales_report")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	query := c.Query("q")

	var items []domain.CatalogItem
	var err error
	if query == "" {
		items, err = h.catalogService.ListActive(c.Request.Context(), tenantID, kind)
	} else {
		items, err = h.catalogService.Search(c.Request.Context(), tenantID, kind, query, limit)
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, items)
}
