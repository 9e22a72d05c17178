package controllers

import (
	"net/http"
	"strconv"

	"restaurant-service/middleware"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// respondError renders a ServiceError, preferring its structured body.
func respondError(ctx *gin.Context, svcErr *services.ServiceError) {
	if svcErr.Body != nil {
		ctx.JSON(svcErr.StatusCode, svcErr.Body)
		return
	}
	ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
}

func bindError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
}

// parseID reads a positive integer path parameter, answering 404 otherwise.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return 0, false
	}
	return uint(id), true
}

// callerRoles returns the roles loaded by middleware, or answers 401.
func callerRoles(ctx *gin.Context) (services.Roles, bool) {
	roles, ok := middleware.GetRoles(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
		return services.Roles{}, false
	}
	return roles, true
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}
