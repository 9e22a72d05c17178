package controllers

import (
	"net/http"

	"restaurant-service/middleware"
	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

// AuthController handles account registration and tokens.
type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register handles POST /auth/users.
func (ac *AuthController) Register(ctx *gin.Context) {
	var req models.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	user, svcErr := ac.authService.Register(ctx.Request.Context(), &req, false)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}

// Login handles POST /auth/token/login.
func (ac *AuthController) Login(ctx *gin.Context) {
	var req models.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	pair, svcErr := ac.authService.Login(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, pair)
}

// Refresh handles POST /auth/token/refresh.
func (ac *AuthController) Refresh(ctx *gin.Context) {
	var req models.RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindError(ctx, err)
		return
	}

	pair, svcErr := ac.authService.Refresh(ctx.Request.Context(), req.RefreshToken)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, pair)
}

// Me handles GET /auth/users/me.
func (ac *AuthController) Me(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, svcErr := ac.authService.Me(ctx.Request.Context(), userID)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, user)
}
