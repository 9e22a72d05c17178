package controllers

import (
	"net/http"

	"restaurant-service/middleware"
	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// CartController handles the caller's own cart.
type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// GetCart handles GET /cart/menu-items/.
func (cc *CartController) GetCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	lines, svcErr := cc.cartService.ListCart(ctx.Request.Context(), userID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	if lines == nil {
		lines = []models.CartItem{}
	}
	ctx.JSON(http.StatusOK, lines)
}

// AddToCart handles POST /cart/menu-items/.
func (cc *CartController) AddToCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.AddToCartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	line, svcErr := cc.cartService.AddToCart(ctx.Request.Context(), userID, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, line)
}

// ClearCart handles DELETE /cart/menu-items/.
func (cc *CartController) ClearCart(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if svcErr := cc.cartService.ClearCart(ctx.Request.Context(), userID); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
}
