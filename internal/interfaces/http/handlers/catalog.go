package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/template-store/internal/domain/catalog"
)

// CatalogHandler handles template browsing endpoints
type CatalogHandler struct {
	catalogService *catalog.Service
	log            *logrus.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalog.Service, log *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		log:            log,
	}
}

// GetTemplates handles GET /templates
func (h *CatalogHandler) GetTemplates(c *gin.Context) {
	templates, err := h.catalogService.ListTemplates(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list templates")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to retrieve templates",
		})
		return
	}

	categories := make([]gin.H, 0, len(catalog.Categories()))
	for _, category := range catalog.Categories() {
		categories = append(categories, gin.H{"id": category, "title": category.Title()})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Templates retrieved successfully",
		"data": gin.H{
			"templates":  templates,
			"categories": categories,
		},
	})
}

// GetCategory handles GET /templates/:category
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	page, err := h.catalogService.GetCategoryPage(c.Request.Context(), catalog.Category(c.Param("category")))
	if err != nil {
		h.respondError(c, err, "Category not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Category retrieved successfully",
		"data":    page,
	})
}

// GetTemplate handles GET /templates/:category/:id
func (h *CatalogHandler) GetTemplate(c *gin.Context) {
	detail, err := h.catalogService.GetTemplateDetail(c.Request.Context(),
		catalog.Category(c.Param("category")), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Template retrieved successfully",
		"data":    detail,
	})
}

func (h *CatalogHandler) respondError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   notFound,
		})
		return
	}

	h.log.WithError(err).Error("Catalog request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   "Failed to retrieve template",
	})
}
