package handler

import (
	"github.com/gin-gonic/gin"

	"declbot/internal/catalog"
)

// CatalogHandler exposes the product catalog the dialogue matches against.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// List handles GET /api/v1/catalog
// @Summary List catalog entries
// @Tags catalog
// @Produce json
// @Success 200 {object} Response{data=[]domain.CatalogEntry} "Catalog entries"
// @Failure 401 {object} ErrorResponseBody "Unauthorized"
// @Security BearerAuth
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	RespondOK(c, h.catalog.Entries())
}
