package routes

import (
	"restaurant-service/controllers"
	"restaurant-service/middleware"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Auth bundles what the route groups need to identify callers.
type Auth struct {
	Tokens   middleware.TokenValidator
	Resolver services.RoleResolver
	Logger   *zap.Logger
}

// required identifies the caller and loads their roles, rejecting anonymous requests.
func (a Auth) required() []gin.HandlerFunc {
	return []gin.HandlerFunc{middleware.Authenticate(a.Tokens), middleware.LoadRoles(a.Resolver, a.Logger)}
}

// optional loads roles when a token is sent and lets anonymous reads through.
func (a Auth) optional() []gin.HandlerFunc {
	return []gin.HandlerFunc{middleware.OptionalAuth(a.Tokens), middleware.LoadRoles(a.Resolver, a.Logger)}
}

// RegisterCatalogRoutes sets up categories and menu items. Reads are public.
func RegisterCatalogRoutes(r *gin.Engine, auth Auth, cc *controllers.CatalogController) {
	categoryRoutes := r.Group("/categorys")
	categoryRoutes.Use(auth.optional()...)
	{
		categoryRoutes.GET("/", cc.ListCategories)
		categoryRoutes.POST("/", middleware.RequireStaffOrManager(), cc.CreateCategory)
	}

	menuRoutes := r.Group("/menu-items")
	menuRoutes.Use(auth.optional()...)
	{
		menuRoutes.GET("/", cc.ListMenuItems)
		menuRoutes.GET("/:id", cc.GetMenuItem)

		managerRoutes := menuRoutes.Group("")
		managerRoutes.Use(middleware.RequireManager())
		managerRoutes.POST("/", cc.CreateMenuItem)
		managerRoutes.PUT("/:id", cc.ReplaceMenuItem)
		managerRoutes.PATCH("/:id", cc.PatchMenuItem)
		managerRoutes.DELETE("/:id", cc.DeleteMenuItem)
	}
}

// RegisterGroupRoutes sets up the manager-only staff rosters.
func RegisterGroupRoutes(r *gin.Engine, auth Auth, managers, crew *controllers.GroupController) {
	groupRoutes := r.Group("/groups")
	groupRoutes.Use(auth.required()...)
	groupRoutes.Use(middleware.RequireManager())

	register := func(path string, gc *controllers.GroupController) {
		g := groupRoutes.Group(path)
		g.GET("/users", gc.ListMembers)
		g.POST("/users", gc.AddMember)
		g.DELETE("/users/:id", gc.RemoveMember)
	}
	register("/manager", managers)
	register("/delivery-crew", crew)
}

// RegisterCartRoutes sets up the caller's cart.
func RegisterCartRoutes(r *gin.Engine, auth Auth, cc *controllers.CartController) {
	cartRoutes := r.Group("/cart/menu-items")
	cartRoutes.Use(auth.required()...)
	{
		cartRoutes.GET("/", cc.GetCart)
		cartRoutes.POST("/", cc.AddToCart)
		cartRoutes.DELETE("/", cc.ClearCart)
	}
}

// RegisterOrderRoutes sets up checkout and order tracking. Per-role scoping
// of reads and PATCH happens in the order service.
func RegisterOrderRoutes(r *gin.Engine, auth Auth, oc *controllers.OrderController) {
	orderRoutes := r.Group("/orders")
	orderRoutes.Use(auth.required()...)
	{
		orderRoutes.GET("/", oc.ListOrders)
		orderRoutes.POST("/", oc.PlaceOrder)
		orderRoutes.GET("/:id", oc.GetOrder)
		orderRoutes.PATCH("/:id", middleware.RequireManagerOrCrew(), oc.PatchOrder)
		orderRoutes.PUT("/:id", middleware.RequireManager(), oc.ReplaceOrder)
		orderRoutes.DELETE("/:id", middleware.RequireManager(), oc.DeleteOrder)
	}
}

// RegisterAuthRoutes sets up registration and token endpoints.
func RegisterAuthRoutes(r *gin.Engine, auth Auth, ac *controllers.AuthController) {
	authRoutes := r.Group("/auth")
	authRoutes.POST("/users", ac.Register)
	authRoutes.POST("/token/login", ac.Login)
	authRoutes.POST("/token/refresh", ac.Refresh)

	me := authRoutes.Group("/users/me")
	me.Use(auth.required()...)
	me.GET("", ac.Me)
}
