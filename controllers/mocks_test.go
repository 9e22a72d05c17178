package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-service/middleware"
	"restaurant-service/models"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock services ---

type mockCatalogService struct {
	listCategoriesFn func(ctx context.Context) ([]models.Category, *services.ServiceError)
	createCategoryFn func(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *services.ServiceError)
	listItemsFn      func(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, *services.ServiceError)
	getItemFn        func(ctx context.Context, id uint) (*models.MenuItem, *services.ServiceError)
	createItemFn     func(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, *services.ServiceError)
	replaceItemFn    func(ctx context.Context, id uint, req *models.CreateMenuItemRequest) (*models.MenuItem, *services.ServiceError)
	patchItemFn      func(ctx context.Context, id uint, req *models.PatchMenuItemRequest) (*models.MenuItem, *services.ServiceError)
	deleteItemFn     func(ctx context.Context, id uint) *services.ServiceError
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]models.Category, *services.ServiceError) {
	return m.listCategoriesFn(ctx)
}
func (m *mockCatalogService) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *services.ServiceError) {
	return m.createCategoryFn(ctx, req)
}
func (m *mockCatalogService) ListMenuItems(ctx context.Context, filter models.MenuItemFilter) (*models.MenuItemPage, *services.ServiceError) {
	return m.listItemsFn(ctx, filter)
}
func (m *mockCatalogService) GetMenuItem(ctx context.Context, id uint) (*models.MenuItem, *services.ServiceError) {
	return m.getItemFn(ctx, id)
}
func (m *mockCatalogService) CreateMenuItem(ctx context.Context, req *models.CreateMenuItemRequest) (*models.MenuItem, *services.ServiceError) {
	return m.createItemFn(ctx, req)
}
func (m *mockCatalogService) ReplaceMenuItem(ctx context.Context, id uint, req *models.CreateMenuItemRequest) (*models.MenuItem, *services.ServiceError) {
	return m.replaceItemFn(ctx, id, req)
}
func (m *mockCatalogService) PatchMenuItem(ctx context.Context, id uint, req *models.PatchMenuItemRequest) (*models.MenuItem, *services.ServiceError) {
	return m.patchItemFn(ctx, id, req)
}
func (m *mockCatalogService) DeleteMenuItem(ctx context.Context, id uint) *services.ServiceError {
	return m.deleteItemFn(ctx, id)
}

type mockCartService struct {
	listFn  func(ctx context.Context, userID uint) ([]models.CartItem, *services.ServiceError)
	addFn   func(ctx context.Context, userID uint, req *models.AddToCartRequest) (*models.CartItem, *services.ServiceError)
	clearFn func(ctx context.Context, userID uint) *services.ServiceError
}

func (m *mockCartService) ListCart(ctx context.Context, userID uint) ([]models.CartItem, *services.ServiceError) {
	return m.listFn(ctx, userID)
}
func (m *mockCartService) AddToCart(ctx context.Context, userID uint, req *models.AddToCartRequest) (*models.CartItem, *services.ServiceError) {
	return m.addFn(ctx, userID, req)
}
func (m *mockCartService) ClearCart(ctx context.Context, userID uint) *services.ServiceError {
	return m.clearFn(ctx, userID)
}

type mockOrderService struct {
	placeFn  func(ctx context.Context, userID uint) (*models.Order, *services.ServiceError)
	listFn   func(ctx context.Context, roles services.Roles, filter models.OrderFilter) ([]models.Order, int64, *services.ServiceError)
	getFn    func(ctx context.Context, roles services.Roles, id uint) (*models.Order, *services.ServiceError)
	updateFn func(ctx context.Context, roles services.Roles, id uint, update services.OrderUpdate) (*models.Order, *services.ServiceError)
	deleteFn func(ctx context.Context, roles services.Roles, id uint) *services.ServiceError
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID uint) (*models.Order, *services.ServiceError) {
	return m.placeFn(ctx, userID)
}
func (m *mockOrderService) ListOrders(ctx context.Context, roles services.Roles, filter models.OrderFilter) ([]models.Order, int64, *services.ServiceError) {
	return m.listFn(ctx, roles, filter)
}
func (m *mockOrderService) GetOrder(ctx context.Context, roles services.Roles, id uint) (*models.Order, *services.ServiceError) {
	return m.getFn(ctx, roles, id)
}
func (m *mockOrderService) UpdateOrder(ctx context.Context, roles services.Roles, id uint, update services.OrderUpdate) (*models.Order, *services.ServiceError) {
	return m.updateFn(ctx, roles, id, update)
}
func (m *mockOrderService) DeleteOrder(ctx context.Context, roles services.Roles, id uint) *services.ServiceError {
	return m.deleteFn(ctx, roles, id)
}

type mockGroupService struct {
	listFn   func(ctx context.Context, group string) ([]models.User, *services.ServiceError)
	addFn    func(ctx context.Context, group, username string) *services.ServiceError
	removeFn func(ctx context.Context, group string, userID uint) *services.ServiceError
}

func (m *mockGroupService) ListMembers(ctx context.Context, group string) ([]models.User, *services.ServiceError) {
	return m.listFn(ctx, group)
}
func (m *mockGroupService) AddMember(ctx context.Context, group, username string) *services.ServiceError {
	return m.addFn(ctx, group, username)
}
func (m *mockGroupService) RemoveMember(ctx context.Context, group string, userID uint) *services.ServiceError {
	return m.removeFn(ctx, group, userID)
}

type mockAuthService struct {
	registerFn func(ctx context.Context, req *models.RegisterRequest, staff bool) (*models.User, *services.ServiceError)
	loginFn    func(ctx context.Context, req *models.LoginRequest) (*services.TokenPair, *services.ServiceError)
	refreshFn  func(ctx context.Context, token string) (*services.TokenPair, *services.ServiceError)
	meFn       func(ctx context.Context, userID uint) (*models.User, *services.ServiceError)
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest, staff bool) (*models.User, *services.ServiceError) {
	return m.registerFn(ctx, req, staff)
}
func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (*services.TokenPair, *services.ServiceError) {
	return m.loginFn(ctx, req)
}
func (m *mockAuthService) Refresh(ctx context.Context, token string) (*services.TokenPair, *services.ServiceError) {
	return m.refreshFn(ctx, token)
}
func (m *mockAuthService) Me(ctx context.Context, userID uint) (*models.User, *services.ServiceError) {
	return m.meFn(ctx, userID)
}

// --- Helpers ---

// asCaller injects an authenticated caller with the given groups, the way
// Authenticate and LoadRoles would.
func asCaller(r *gin.Engine, userID uint, groups ...string) {
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserContextKey, userID)
		c.Set(middleware.RolesContextKey, services.Roles{UserID: userID, Groups: groups})
		c.Next()
	})
}

func doJSON(r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		if raw, ok := payload.(string); ok {
			body.WriteString(raw)
		} else {
			_ = json.NewEncoder(&body).Encode(payload)
		}
	}
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}
