package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	"restaurant-service/models"
	"restaurant-service/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// --- In-memory store backing every repository mock ---

type memStore struct {
	mu         sync.Mutex
	nextID     uint
	users      map[uint]*models.User
	categories map[uint]*models.Category
	items      map[uint]*models.MenuItem
	carts      []models.CartItem
	orders     map[uint]*models.Order
	placeErr   error
	listCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uint]*models.User{},
		categories: map[uint]*models.Category{},
		items:      map[uint]*models.MenuItem{},
		orders:     map[uint]*models.Order{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func uniqueErr(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (m *memStore) addUser(username string, groups ...string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.id(), Username: username}
	for _, g := range groups {
		u.Groups = append(u.Groups, models.Group{Name: g})
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addMenuItem(title, price string) *models.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	cat := &models.Category{ID: m.id(), Slug: strings.ToLower(title) + "-cat", Title: title + " cat"}
	m.categories[cat.ID] = cat
	item := &models.MenuItem{ID: m.id(), Title: title, Price: dec(price), CategoryID: cat.ID, Category: *cat}
	m.items[item.ID] = item
	return item
}

func (m *memStore) cartOf(userID uint) []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CartItem
	for _, c := range m.carts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

// --- UserRepository ---

type memUsers struct{ *memStore }

func (m memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return uniqueErr("idx_users_username")
		}
	}
	user.ID = m.id()
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m memUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m memUsers) ListByGroup(_ context.Context, group string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.InGroup(group) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memUsers) GroupNames(_ context.Context, userID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	if u, ok := m.users[userID]; ok {
		for _, g := range u.Groups {
			names = append(names, g.Name)
		}
	}
	return names, nil
}

func (m memUsers) AddToGroup(_ context.Context, userID uint, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if !u.InGroup(group) {
		u.Groups = append(u.Groups, models.Group{Name: group})
	}
	return nil
}

func (m memUsers) RemoveFromGroup(_ context.Context, userID uint, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	kept := u.Groups[:0]
	for _, g := range u.Groups {
		if g.Name != group {
			kept = append(kept, g)
		}
	}
	u.Groups = kept
	return nil
}

// --- CategoryRepository ---

type memCategories struct{ *memStore }

func (m memCategories) FindAll(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Category
	for _, c := range m.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m memCategories) FindByID(_ context.Context, id uint) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m memCategories) Create(_ context.Context, category *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Title == category.Title {
			return uniqueErr("idx_categories_title")
		}
		if c.Slug == category.Slug {
			return uniqueErr("idx_categories_slug")
		}
	}
	category.ID = m.id()
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

// --- MenuItemRepository ---

type memItems struct{ *memStore }

func (m memItems) FindAll(_ context.Context, filter models.MenuItemFilter) ([]models.MenuItem, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []models.MenuItem
	for _, it := range m.items {
		if filter.Category != "" && it.Category.Title != filter.Category {
			continue
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memItems) FindByID(_ context.Context, id uint) (*models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *it
	if c, ok := m.categories[cp.CategoryID]; ok {
		cp.Category = *c
	}
	return &cp, nil
}

func (m memItems) Create(_ context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.Title == item.Title {
			return uniqueErr("idx_menu_items_title")
		}
	}
	item.ID = m.id()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m memItems) Update(_ context.Context, item *models.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID != item.ID && it.Title == item.Title {
			return uniqueErr("idx_menu_items_title")
		}
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m memItems) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, id)
	return nil
}

// --- CartRepository ---

type memCarts struct{ *memStore }

func (m memCarts) FindByUser(_ context.Context, userID uint) ([]models.CartItem, error) {
	lines := m.cartOf(userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range lines {
		if it, ok := m.items[lines[i].MenuItemID]; ok {
			lines[i].MenuItem = *it
		}
	}
	return lines, nil
}

func (m memCarts) Exists(_ context.Context, userID, menuItemID uint) (bool, error) {
	for _, c := range m.cartOf(userID) {
		if c.MenuItemID == menuItemID {
			return true, nil
		}
	}
	return false, nil
}

func (m memCarts) Create(_ context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.UserID == item.UserID && c.MenuItemID == item.MenuItemID {
			return uniqueErr("idx_cart_user_menuitem")
		}
	}
	item.ID = m.id()
	m.carts = append(m.carts, *item)
	return nil
}

func (m memCarts) DeleteByUser(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteCart(userID), nil
}

func (m *memStore) deleteCart(userID uint) int64 {
	kept := m.carts[:0]
	var n int64
	for _, c := range m.carts {
		if c.UserID == userID {
			n++
			continue
		}
		kept = append(kept, c)
	}
	m.carts = kept
	return n
}

// --- OrderRepository ---

type memOrders struct{ *memStore }

func (m memOrders) PlaceOrder(_ context.Context, order *models.Order, cartLineIDs []uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.placeErr != nil {
		return m.placeErr
	}
	var current []uint
	for _, c := range m.carts {
		if c.UserID == order.UserID {
			current = append(current, c.ID)
		}
	}
	if len(current) != len(cartLineIDs) {
		return repository.ErrCartChanged
	}
	order.ID = m.id()
	for i := range order.OrderItems {
		order.OrderItems[i].ID = m.id()
		order.OrderItems[i].OrderID = order.ID
	}
	cp := *order
	m.orders[order.ID] = &cp
	m.deleteCart(order.UserID)
	return nil
}

func inScope(o *models.Order, scope repository.OrderScope) bool {
	if scope.UserID != nil && o.UserID != *scope.UserID {
		return false
	}
	if scope.DeliveryCrewID != nil && (o.DeliveryCrewID == nil || *o.DeliveryCrewID != *scope.DeliveryCrewID) {
		return false
	}
	return true
}

func (m memOrders) FindAll(_ context.Context, scope repository.OrderScope, filter models.OrderFilter) ([]models.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if !inScope(o, scope) {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m memOrders) FindByID(_ context.Context, id uint, scope repository.OrderScope) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !inScope(o, scope) {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (m memOrders) Update(_ context.Context, order *models.Order, fields []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, f := range fields {
		switch f {
		case "Status":
			stored.Status = order.Status
		case "DeliveryCrewID":
			stored.DeliveryCrewID = order.DeliveryCrewID
		case "Total":
			stored.Total = order.Total
		case "Date":
			stored.Date = order.Date
		}
	}
	return nil
}

func (m memOrders) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.orders, id)
	return nil
}

// --- Mock event publisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []any
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *mockPublisher) Close() error { return nil }

// --- Mock menu cache ---

type mockMenuCache struct {
	pages       map[string]*models.MenuItemPage
	invalidated int
}

func newMockMenuCache() *mockMenuCache {
	return &mockMenuCache{pages: map[string]*models.MenuItemPage{}}
}

func (c *mockMenuCache) GetMenuList(_ context.Context, f models.MenuItemFilter) (*models.MenuItemPage, bool) {
	p, ok := c.pages[f.Category+"|"+f.Ordering]
	return p, ok
}

func (c *mockMenuCache) SetMenuList(_ context.Context, f models.MenuItemFilter, page *models.MenuItemPage) {
	c.pages[f.Category+"|"+f.Ordering] = page
}

func (c *mockMenuCache) Invalidate(context.Context) error {
	c.invalidated++
	c.pages = map[string]*models.MenuItemPage{}
	return nil
}
