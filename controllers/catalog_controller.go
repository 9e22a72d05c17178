package controllers

import (
	"net/http"

	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// CatalogController handles categories and menu items.
type CatalogController struct {
	catalogService services.CatalogService
}

func NewCatalogController(catalogService services.CatalogService) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

// ListCategories handles GET /categorys/.
func (cc *CatalogController) ListCategories(ctx *gin.Context) {
	categories, svcErr := cc.catalogService.ListCategories(ctx.Request.Context())
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

// CreateCategory handles POST /categorys/ (admin or manager).
func (cc *CatalogController) CreateCategory(ctx *gin.Context) {
	var req models.CreateCategoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	category, svcErr := cc.catalogService.CreateCategory(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, category)
}

// ListMenuItems handles GET /menu-items/ with category, search, ordering and
// page/limit query parameters.
func (cc *CatalogController) ListMenuItems(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	filter := models.MenuItemFilter{
		Category: ctx.Query("category"),
		Search:   ctx.Query("search"),
		Ordering: ctx.Query("ordering"),
		Page:     page,
		Limit:    limit,
	}

	result, svcErr := cc.catalogService.ListMenuItems(ctx.Request.Context(), filter)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	items := result.Items
	if items == nil {
		items = []models.MenuItem{}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"menu_items": items,
		"meta":       models.NewMetaData(page, limit, result.Total),
	})
}

// GetMenuItem handles GET /menu-items/:id.
func (cc *CatalogController) GetMenuItem(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	item, svcErr := cc.catalogService.GetMenuItem(ctx.Request.Context(), id)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// CreateMenuItem handles POST /menu-items/ (manager only).
func (cc *CatalogController) CreateMenuItem(ctx *gin.Context) {
	var req models.CreateMenuItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	item, svcErr := cc.catalogService.CreateMenuItem(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, item)
}

// ReplaceMenuItem handles PUT /menu-items/:id (manager only).
func (cc *CatalogController) ReplaceMenuItem(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req models.CreateMenuItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	item, svcErr := cc.catalogService.ReplaceMenuItem(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// PatchMenuItem handles PATCH /menu-items/:id (manager only).
func (cc *CatalogController) PatchMenuItem(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req models.PatchMenuItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	item, svcErr := cc.catalogService.PatchMenuItem(ctx.Request.Context(), id, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, item)
}

// DeleteMenuItem handles DELETE /menu-items/:id (manager only).
func (cc *CatalogController) DeleteMenuItem(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if svcErr := cc.catalogService.DeleteMenuItem(ctx.Request.Context(), id); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.Status(http.StatusNoContent)
}
