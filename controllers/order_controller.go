package controllers

import (
	"net/http"
	"strconv"

	"restaurant-service/middleware"
	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// OrderController handles checkout and order tracking.
type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// PlaceOrder handles POST /orders/. The caller's cart becomes the order.
func (oc *OrderController) PlaceOrder(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, svcErr := oc.orderService.PlaceOrder(ctx.Request.Context(), userID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, order)
}

// ListOrders handles GET /orders/ with status, ordering and page/limit.
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	roles, ok := callerRoles(ctx)
	if !ok {
		return
	}

	page, limit := parsePaginationParams(ctx)
	filter := models.OrderFilter{
		Ordering: ctx.Query("ordering"),
		Page:     page,
		Limit:    limit,
	}
	if raw := ctx.Query("status"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"status": []string{"A valid integer is required."}})
			return
		}
		st := models.OrderStatus(v)
		filter.Status = &st
	}

	orders, total, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), roles, filter)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"meta":   models.NewMetaData(page, limit, total),
	})
}

// GetOrder handles GET /orders/:id.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	roles, ok := callerRoles(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), roles, id)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// ReplaceOrder handles PUT /orders/:id (manager only).
func (oc *OrderController) ReplaceOrder(ctx *gin.Context) {
	oc.update(ctx, true)
}

// PatchOrder handles PATCH /orders/:id. Delivery crew may only set status.
func (oc *OrderController) PatchOrder(ctx *gin.Context) {
	oc.update(ctx, false)
}

func (oc *OrderController) update(ctx *gin.Context, full bool) {
	roles, ok := callerRoles(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req models.OrderUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	update, svcErr := services.NewOrderUpdate(roles, &req, full)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	order, svcErr := oc.orderService.UpdateOrder(ctx.Request.Context(), roles, id, update)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, order)
}

// DeleteOrder handles DELETE /orders/:id (manager only).
func (oc *OrderController) DeleteOrder(ctx *gin.Context) {
	roles, ok := callerRoles(ctx)
	if !ok {
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if svcErr := oc.orderService.DeleteOrder(ctx.Request.Context(), roles, id); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.Status(http.StatusNoContent)
}
