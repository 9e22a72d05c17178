package repository_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"restaurant-service/models"
	"restaurant-service/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func testOrder() *models.Order {
	return &models.Order{
		UserID: 7,
		Status: models.OrderStatusOutForDelivery,
		Total:  decimal.RequireFromString("21.00"),
		Date:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		OrderItems: []models.OrderItem{
			{MenuItemID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("8.00"), Price: decimal.RequireFromString("16.00")},
			{MenuItemID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), Price: decimal.RequireFromString("5.00")},
		},
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)
	order := testOrder()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "cart_items" WHERE user_id = $1 ORDER BY id FOR UPDATE`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100).AddRow(101))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items" WHERE user_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err := repo.PlaceOrder(context.Background(), order, []uint{4, 3})
	require.NoError(t, err)
	assert.Equal(t, uint(10), order.ID)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, uint(10), order.OrderItems[0].OrderID)
	assert.Equal(t, uint(10), order.OrderItems[1].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_CartChangedRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "cart_items"`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.PlaceOrder(context.Background(), testOrder(), []uint{3, 4})
	assert.ErrorIs(t, err, repository.ErrCartChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPlaceOrder_ItemInsertFailureRollsBack(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "cart_items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "order_items"`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err := repo.PlaceOrder(context.Background(), testOrder(), []uint{3, 4})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderFindByID_OutOfScope(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)
	userID := uint(7)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE orders.user_id = $1 AND orders.id = $2`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	o, err := repo.FindByID(context.Background(), 42, repository.OrderScope{UserID: &userID})
	assert.Nil(t, o)
	assert.True(t, repository.IsNotFound(err))
}

func TestOrderFindByID_LoadsMenuItems(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE orders.id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total", "date"}).
			AddRow(42, 7, 0, "16.00", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE "order_items"."order_id" = \$1 ORDER BY order_items.id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menuitem_id", "quantity", "unit_price", "price"}).
			AddRow(1, 42, 3, 2, "8.00", "16.00"))
	mock.ExpectQuery(`SELECT \* FROM "menu_items" WHERE "menu_items"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "featured", "category_id"}).
			AddRow(3, "Burger", "8.00", false, 2))
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE "categories"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "title"}).AddRow(2, "mains", "Mains"))

	o, err := repo.FindByID(context.Background(), 42, repository.OrderScope{})
	require.NoError(t, err)
	require.Len(t, o.OrderItems, 1)
	require.NotNil(t, o.OrderItems[0].MenuItem)
	assert.Equal(t, "Burger", o.OrderItems[0].MenuItem.Title)
	assert.Equal(t, "Mains", o.OrderItems[0].MenuItem.Category.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdate_WritesSelectedFields(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	order := &models.Order{ID: 5, Status: models.OrderStatusDelivered}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET "status"=\$1 WHERE .*"id" = \$2`).
		WithArgs(models.OrderStatusDelivered, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), order, []string{"Status"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderUpdate_NoFields(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	require.NoError(t, repo.Update(context.Background(), &models.Order{ID: 5}, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderDelete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderingWhitelists(t *testing.T) {
	assert.True(t, repository.OrderOrderingAllowed(""))
	assert.True(t, repository.OrderOrderingAllowed("-total"))
	assert.True(t, repository.OrderOrderingAllowed("user"))
	assert.False(t, repository.OrderOrderingAllowed("status; DROP TABLE orders"))

	assert.True(t, repository.MenuItemOrderingAllowed("-price"))
	assert.False(t, repository.MenuItemOrderingAllowed("title"))
}

func TestMenuItemFindAll_FiltersByCategory(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormMenuItemRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "menu_items".*"Category"\."title" = \$1`).
		WithArgs("Mains").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows([]string{"id", "title", "price", "featured", "category_id", "Category__id", "Category__slug", "Category__title"}).
		AddRow(1, "Burger", "8.00", true, 2, 2, "mains", "Mains")
	mock.ExpectQuery(`SELECT .* FROM "menu_items" LEFT JOIN "categories" "Category".*ORDER BY menu_items.price DESC`).
		WillReturnRows(rows)

	items, total, err := repo.FindAll(context.Background(), models.MenuItemFilter{
		Category: "Mains",
		Ordering: "-price",
		Page:     1,
		Limit:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Burger", items[0].Title)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("8.00")))
	assert.Equal(t, "Mains", items[0].Category.Title)
}

func TestMenuItemFindAll_SearchMatchesWildcardsLiterally(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormMenuItemRepository(gormDB)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "menu_items".*LIKE \$1 ESCAPE '\\' OR .*LIKE \$2 ESCAPE '\\'`).
		WithArgs(`%50\%\_off%`, `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .* FROM "menu_items" LEFT JOIN "categories" "Category"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "price", "featured", "category_id"}))

	items, total, err := repo.FindAll(context.Background(), models.MenuItemFilter{
		Search: "50%_OFF",
		Page:   1,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMenuItemDelete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormMenuItemRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "menu_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), gorm.ErrRecordNotFound)
}

func TestCategoryCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCategoryRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "categories"`)).
		WithArgs("mains", "Mains").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	c := &models.Category{Slug: "mains", Title: "Mains"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, uint(1), c.ID)
}

func TestCartExists(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "cart_items" WHERE user_id = $1 AND menuitem_id = $2`)).
		WithArgs(7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	ok, err := repo.Exists(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCartDeleteByUser_ReturnsCount(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormCartRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "cart_items" WHERE user_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.DeleteByUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUserGroupNames(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	mock.ExpectQuery(`SELECT .*name.* FROM "groups" JOIN user_groups ON user_groups.group_id = groups.id WHERE user_groups.user_id = \$1`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Manager"))

	names, err := repo.GroupNames(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []string{"Manager"}, names)
}

func TestUserFindByUsername_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	u, err := repo.FindByUsername(context.Background(), "ghost")
	assert.Nil(t, u)
	assert.True(t, repository.IsNotFound(err))
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, repository.IsUniqueViolation(wrapped))
	assert.True(t, repository.IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, repository.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, repository.IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, repository.IsUniqueViolation(errors.New("boom")))
}
