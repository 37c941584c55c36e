package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platemate/order-api/internal/domain/auth"
	"github.com/platemate/order-api/internal/domain/cart"
	"github.com/platemate/order-api/internal/domain/menu"
	"github.com/platemate/order-api/internal/domain/order"
	"github.com/platemate/order-api/internal/domain/user"
)

// --- Mock implementations ---

type lineKey struct {
	userID, restaurantID, menuItemID string
}

type mockCartRepo struct {
	lines map[lineKey]*cart.Line
}

func newCartRepo(lines ...cart.Line) *mockCartRepo {
	m := &mockCartRepo{lines: make(map[lineKey]*cart.Line)}
	for i := range lines {
		l := lines[i]
		m.lines[lineKey{l.UserID, l.RestaurantID, l.MenuItemID}] = &l
	}
	return m
}

func (m *mockCartRepo) Get(_ context.Context, userID, restaurantID, menuItemID string) (*cart.Line, error) {
	l, ok := m.lines[lineKey{userID, restaurantID, menuItemID}]
	if !ok {
		return nil, cart.ErrLineNotFound
	}
	cp := *l
	return &cp, nil
}

func (m *mockCartRepo) ListByUserAndRestaurant(_ context.Context, userID, restaurantID string) ([]cart.Line, error) {
	var out []cart.Line
	for k, l := range m.lines {
		if k.userID == userID && k.restaurantID == restaurantID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockCartRepo) ListByUser(_ context.Context, userID string) ([]cart.Line, error) {
	var out []cart.Line
	for k, l := range m.lines {
		if k.userID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockCartRepo) Save(_ context.Context, l *cart.Line) error {
	cp := *l
	m.lines[lineKey{l.UserID, l.RestaurantID, l.MenuItemID}] = &cp
	return nil
}

func (m *mockCartRepo) Delete(_ context.Context, userID, restaurantID, menuItemID string) error {
	delete(m.lines, lineKey{userID, restaurantID, menuItemID})
	return nil
}

func (m *mockCartRepo) DeleteAll(_ context.Context, userID, restaurantID string) error {
	for k := range m.lines {
		if k.userID == userID && k.restaurantID == restaurantID {
			delete(m.lines, k)
		}
	}
	return nil
}

type mockMenuRepo struct {
	byID map[string]*menu.Item
}

func newMenuRepo(items ...menu.Item) *mockMenuRepo {
	m := &mockMenuRepo{byID: make(map[string]*menu.Item)}
	for i := range items {
		m.byID[items[i].ID] = &items[i]
	}
	return m
}

func (m *mockMenuRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]menu.Item, error) {
	var out []menu.Item
	for _, it := range m.byID {
		if it.RestaurantID == restaurantID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *mockMenuRepo) GetByID(_ context.Context, id string) (*menu.Item, error) {
	it, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return it, nil
}

type mockOrderRepo struct {
	byID    map[string]*order.Order
	created *order.Order
}

func newOrderRepo(orders ...*order.Order) *mockOrderRepo {
	m := &mockOrderRepo{byID: make(map[string]*order.Order)}
	for _, o := range orders {
		m.byID[o.ID] = o
	}
	return m
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.created = o
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, status order.Status) error {
	o, ok := m.byID[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) ListByRestaurant(_ context.Context, restaurantID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.byID {
		if o.RestaurantID == restaurantID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type mockUserClient struct {
	user   *user.User
	getErr error
}

func (m *mockUserClient) GetByID(_ context.Context, _ string) (*user.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.user, nil
}

func (m *mockUserClient) DebitWallet(_ context.Context, _ string, _ decimal.Decimal) error {
	return nil
}

func (m *mockUserClient) GetAddressByID(_ context.Context, _ string) (*user.Address, error) {
	return &user.Address{ID: "a1", UserID: "u1", Street: "1 Main St", City: "Springfield"}, nil
}

// --- Helpers ---

type testEnv struct {
	handler http.Handler
	carts   *mockCartRepo
	orders  *mockOrderRepo
	menu    *mockMenuRepo
	users   *mockUserClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		carts:  newCartRepo(),
		orders: newOrderRepo(),
		menu: newMenuRepo(menu.Item{
			ID: "m1", RestaurantID: "r1", Name: "Margherita", Category: "pizza",
			Price: decimal.RequireFromString("11.50"), Available: true,
		}),
		users: &mockUserClient{user: &user.User{ID: "u1", Role: user.RoleCustomer}},
	}

	cartSvc := cart.NewService(env.carts, env.menu)
	orderSvc := order.NewService(env.users, env.carts, env.orders, order.Config{
		CancelWindow: 1000 * time.Second,
		MatchMode:    cart.MatchQuantity,
	})
	env.handler = NewHandler(cartSvc, orderSvc, env.menu, env.users).Routes()
	return env
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// --- Tests ---

func TestAddCartItem(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodPost, "/cart/items", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"menu_item_id":  "m1",
		"quantity":      2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	line := decodeBody[cartLineDTO](t, rec)
	assert.Equal(t, "m1", line.MenuItemID)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.Price.Equal(decimal.RequireFromString("23.00")), "got %s", line.Price)
}

func TestAddCartItem_UnknownMenuItem(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodPost, "/cart/items", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"menu_item_id":  "missing",
		"quantity":      1,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCartItem_InvalidQuantity(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodPost, "/cart/items", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"menu_item_id":  "m1",
		"quantity":      0,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCartItem_ZeroRemoves(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.carts.Save(context.Background(), &cart.Line{
		UserID: "u1", RestaurantID: "r1", MenuItemID: "m1",
		Quantity: 2, Price: decimal.RequireFromString("23.00"),
	}))

	rec := doJSON(t, env.handler, http.MethodPatch, "/cart/items/m1", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"quantity":      0,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, env.carts.lines)
}

func TestGetCart(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.carts.Save(context.Background(), &cart.Line{
		UserID: "u1", RestaurantID: "r1", MenuItemID: "m1",
		Quantity: 2, Price: decimal.RequireFromString("23.00"),
	}))

	rec := doJSON(t, env.handler, http.MethodGet, "/cart?user_id=u1&restaurant_id=r1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[cartResponse](t, rec)
	require.Len(t, resp.Items, 1)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("23.00")), "got %s", resp.Total)
}

func TestGetCart_MissingKey(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrder_Success(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.carts.Save(context.Background(), &cart.Line{
		UserID: "u1", RestaurantID: "r1", MenuItemID: "m1",
		Quantity: 2, Price: decimal.RequireFromString("23.00"),
	}))

	rec := doJSON(t, env.handler, http.MethodPost, "/orders", map[string]any{
		"user_id":             "u1",
		"restaurant_id":       "r1",
		"delivery_address_id": "a1",
		"items": []map[string]any{
			{"menu_item_id": "m1", "quantity": 2, "price": "23.00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[placeOrderResponse](t, rec)
	assert.True(t, resp.Placed)
	require.NotNil(t, resp.Order)
	assert.Equal(t, "completed", resp.Order.Status)
	assert.True(t, resp.Order.TotalPrice.Equal(decimal.RequireFromString("23.00")))
	assert.Empty(t, env.carts.lines, "cart should be cleared after placement")
}

func TestPlaceOrder_SoftFailure(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.carts.Save(context.Background(), &cart.Line{
		UserID: "u1", RestaurantID: "r1", MenuItemID: "m1",
		Quantity: 2, Price: decimal.RequireFromString("23.00"),
	}))

	rec := doJSON(t, env.handler, http.MethodPost, "/orders", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"items": []map[string]any{
			{"menu_item_id": "m1", "quantity": 5, "price": "57.50"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[placeOrderResponse](t, rec)
	assert.False(t, resp.Placed)
	assert.Nil(t, resp.Order)
	require.Len(t, resp.UnavailableItems, 1)
	assert.Contains(t, resp.Message, "menu item m1")
	assert.Len(t, env.carts.lines, 1, "cart must be untouched on soft failure")
	assert.Nil(t, env.orders.created)
}

func TestPlaceOrder_NotCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.users.user = &user.User{ID: "u1", Role: user.RoleOwner}
	require.NoError(t, env.carts.Save(context.Background(), &cart.Line{
		UserID: "u1", RestaurantID: "r1", MenuItemID: "m1",
		Quantity: 1, Price: decimal.RequireFromString("11.50"),
	}))

	rec := doJSON(t, env.handler, http.MethodPost, "/orders", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"items": []map[string]any{
			{"menu_item_id": "m1", "quantity": 1, "price": "11.50"},
		},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodPost, "/orders", map[string]any{
		"user_id":       "u1",
		"restaurant_id": "r1",
		"items": []map[string]any{
			{"menu_item_id": "m1", "quantity": 1, "price": "11.50"},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder_WindowExpired(t *testing.T) {
	env := newTestEnv(t)
	env.orders.byID["o1"] = &order.Order{
		ID: "o1", UserID: "u1", RestaurantID: "r1",
		Status: order.StatusCompleted, OrderTime: time.Now().Add(-2 * time.Hour),
	}

	rec := doJSON(t, env.handler, http.MethodPost, "/orders/o1/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, order.StatusCompleted, env.orders.byID["o1"].Status)
}

func TestCancelOrder_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodPost, "/orders/missing/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteOrder_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.orders.byID["o1"] = &order.Order{
		ID: "o1", UserID: "u1", RestaurantID: "r1",
		Status: order.StatusCompleted, OrderTime: time.Now(),
	}

	for range 2 {
		rec := doJSON(t, env.handler, http.MethodPost, "/orders/o1/complete", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[orderDTO](t, rec)
		assert.Equal(t, "completed", resp.Status)
	}
}

func TestListMenu(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.handler, http.MethodGet, "/restaurants/r1/menu", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeBody[[]menuItemDTO](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Name)
}

// --- Security middleware ---

type mockAPIKeyRepo struct {
	byHash map[string]*auth.Key
}

func (m *mockAPIKeyRepo) FindByHash(_ context.Context, hash string) (*auth.Key, error) {
	key, ok := m.byHash[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return key, nil
}

func TestAPIKeyAuth(t *testing.T) {
	pepper := []byte("test-pepper")
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte("valid-key"))
	hash := hex.EncodeToString(mac.Sum(nil))

	repo := &mockAPIKeyRepo{byHash: map[string]*auth.Key{
		hash: {ID: "k1", KeyHash: hash, Name: "test", Scopes: []string{"cart:write"}},
	}}

	var reached bool
	protected := APIKeyAuth(repo, pepper)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid key", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("api_key", "valid-key")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("missing key", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("wrong key", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("api_key", "wrong-key")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("write within granted scope", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
		req.Header.Set("api_key", "valid-key")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("write outside granted scope", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set("api_key", "valid-key")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, reached)
	})
}

func TestKeyAllows(t *testing.T) {
	key := &auth.Key{Scopes: []string{"cart:write"}}
	assert.True(t, key.Allows("cart:write"))
	assert.False(t, key.Allows("orders:write"))

	admin := &auth.Key{Scopes: []string{"*"}}
	assert.True(t, admin.Allows("orders:write"))
}
