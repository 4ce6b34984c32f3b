package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appie1702/storefront/internal/auth"
	"github.com/appie1702/storefront/internal/domain/address"
	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/checkout"
	"github.com/appie1702/storefront/internal/domain/coupon"
	"github.com/appie1702/storefront/internal/domain/order"
	"github.com/appie1702/storefront/internal/domain/refund"
	"github.com/appie1702/storefront/internal/domain/user"
	"github.com/appie1702/storefront/internal/payment"
)

// --- Mock implementations ---

type mockItemRepo struct {
	items  []catalog.Item
	bySlug map[string]*catalog.Item
}

func (m *mockItemRepo) List(_ context.Context, _ string, page, pageSize int) (*catalog.Page, error) {
	return &catalog.Page{
		Items:      m.items,
		Total:      len(m.items),
		PageNumber: page,
		PageSize:   pageSize,
	}, nil
}

func (m *mockItemRepo) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	it, ok := m.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) Create(_ context.Context, _ *catalog.Item) error { return nil }

type mockUserRepo struct {
	byUsername map[string]*user.User
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	if _, taken := m.byUsername[u.Username]; taken {
		return user.ErrUsernameTaken
	}
	m.byUsername[u.Username] = u
	return nil
}

func (m *mockUserRepo) ByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) ByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	for _, u := range m.byUsername {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type mockOrderRepo struct {
	open       *order.Order
	addedLines []*order.Line
	created    *order.Order
}

func (m *mockOrderRepo) Open(_ context.Context, _ uuid.UUID) (*order.Order, error) {
	if m.open == nil {
		return nil, order.ErrNoOpenOrder
	}
	return m.open, nil
}

func (m *mockOrderRepo) ByRefCode(_ context.Context, _ string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.created = o
	return nil
}

func (m *mockOrderRepo) AddLine(_ context.Context, l *order.Line) error {
	m.addedLines = append(m.addedLines, l)
	return nil
}

func (m *mockOrderRepo) SetLineQuantity(_ context.Context, _ uuid.UUID, _ int) error {
	return nil
}
func (m *mockOrderRepo) DeleteLine(_ context.Context, _ uuid.UUID) error { return nil }
func (m *mockOrderRepo) AttachCoupon(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}
func (m *mockOrderRepo) MarkRefundRequested(_ context.Context, _ uuid.UUID) error { return nil }

type mockCouponRepo struct{}

func (m *mockCouponRepo) ByCode(_ context.Context, _ string) (*coupon.Coupon, error) {
	return nil, coupon.ErrNotFound
}
func (m *mockCouponRepo) Create(_ context.Context, _ *coupon.Coupon) error { return nil }

type mockRefundRepo struct{}

func (m *mockRefundRepo) Create(_ context.Context, _ *refund.Refund) error { return nil }

type mockCheckoutStore struct{}

func (m *mockCheckoutStore) InTx(_ context.Context, _ func(context.Context, checkout.Tx) error) error {
	return nil
}

// --- Helpers ---

type fixture struct {
	handler   *Handler
	router    http.Handler
	auth      *auth.Manager
	items     *mockItemRepo
	orders    *mockOrderRepo
	users     *mockUserRepo
	addresses *mockAddressRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	price := decimal.RequireFromString("49.99")
	shirt := catalog.Item{ID: uuid.New(), Title: "Oxford Shirt", Price: price, Slug: "oxford-shirt", Category: "shirt", Label: "primary"}

	items := &mockItemRepo{
		items:  []catalog.Item{shirt},
		bySlug: map[string]*catalog.Item{"oxford-shirt": &shirt},
	}
	users := &mockUserRepo{byUsername: make(map[string]*user.User)}
	orders := &mockOrderRepo{}
	addresses := &mockAddressRepo{}
	authManager := auth.NewManager([]byte("test-secret"), time.Hour)

	cart := order.NewService(items, orders, &mockCouponRepo{})
	co := checkout.NewService(orders, addresses, &mockCheckoutStore{})
	refunds := refund.NewService(orders, &mockRefundRepo{})

	h := New(
		Config{Currency: "INR", PageSize: 10},
		items, users, addresses, cart, co, refunds, authManager,
		payment.NewLocalGateway(),
	)
	return &fixture{
		handler:   h,
		router:    h.Router(),
		auth:      authManager,
		items:     items,
		orders:    orders,
		users:     users,
		addresses: addresses,
	}
}

type mockAddressRepo struct {
	book []address.Address
}

func (m *mockAddressRepo) Create(_ context.Context, _ *address.Address) error { return nil }

func (m *mockAddressRepo) Default(_ context.Context, _ uuid.UUID, _ address.Kind) (*address.Address, error) {
	return nil, address.ErrNoDefault
}

func (m *mockAddressRepo) ByUser(_ context.Context, userID uuid.UUID) ([]address.Address, error) {
	var out []address.Address
	for _, a := range m.book {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fixture) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.auth.IssueToken(userID)
	require.NoError(t, err)
	return token
}

func decodeNotice(t *testing.T, rec *httptest.ResponseRecorder) notice {
	t.Helper()
	var n notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	return n
}

// --- Tests ---

func TestListItems(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/items", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page itemPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "oxford-shirt", page.Items[0].Slug)
	assert.Equal(t, "49.99", page.Items[0].Price)
}

func TestGetItem_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/items/missing", "", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "This item does not exist.", n.Message)
	assert.Equal(t, "/", n.Redirect)
}

func TestSignupAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "appleseed",
		"email":    "jo@example.com",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.request(t, http.MethodPost, "/login", "", map[string]string{
		"username": "appleseed",
		"password": "hunter2hunter2",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "You are successfully logged in!", resp.Message)

	userID, err := f.auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, f.users.byUsername["appleseed"].ID, userID)
}

func TestSignup_UsernameTaken(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{
		"username": "appleseed",
		"email":    "jo@example.com",
		"password": "hunter2hunter2",
	}

	require.Equal(t, http.StatusCreated, f.request(t, http.MethodPost, "/signup", "", body).Code)
	rec := f.request(t, http.MethodPost, "/signup", "", body)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_BadPassword(t *testing.T) {
	f := newFixture(t)
	f.request(t, http.MethodPost, "/signup", "", map[string]string{
		"username": "appleseed",
		"email":    "jo@example.com",
		"password": "hunter2hunter2",
	})

	rec := f.request(t, http.MethodPost, "/login", "", map[string]string{
		"username": "appleseed",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodGet, "/cart", "", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "/login", n.Redirect)
}

func TestAddToCart(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, uuid.New())

	rec := f.request(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "The item has been added to your cart.", n.Message)
	assert.Equal(t, "/cart", n.Redirect)
	require.NotNil(t, f.orders.created)
}

func TestAddToCart_AlreadyPresent(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	token := f.tokenFor(t, userID)

	shirt := f.items.bySlug["oxford-shirt"]
	f.orders.open = &order.Order{
		ID:     uuid.New(),
		UserID: userID,
		Lines: []order.Line{{
			ID: uuid.New(), UserID: userID, ItemID: shirt.ID, Item: *shirt, Quantity: 1,
		}},
	}

	rec := f.request(t, http.MethodPost, "/cart/oxford-shirt", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "This item is already in your cart.", n.Message)
	assert.Empty(t, f.orders.addedLines)
}

func TestCartView_Empty(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, uuid.New())

	rec := f.request(t, http.MethodGet, "/cart", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "You have no items in your cart.", n.Message)
}

func TestRequestRefund_UnknownRefCode(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, http.MethodPost, "/refunds", "", map[string]string{
		"ref_code": "nosuchcode",
		"email":    "jo@example.com",
		"reason":   "never arrived",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "This order does not exist.", n.Message)
}

func TestAccount(t *testing.T) {
	f := newFixture(t)
	u := &user.User{ID: uuid.New(), Username: "appie", Email: "appie@example.com"}
	f.users.byUsername[u.Username] = u
	token := f.tokenFor(t, u.ID)

	rec := f.request(t, http.MethodGet, "/account", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got accountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "appie", got.Username)
	assert.Equal(t, "appie@example.com", got.Email)
}

func TestAccount_UnknownUser(t *testing.T) {
	f := newFixture(t)
	token := f.tokenFor(t, uuid.New())

	rec := f.request(t, http.MethodGet, "/account", token, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	n := decodeNotice(t, rec)
	assert.Equal(t, "This account does not exist.", n.Message)
	assert.Equal(t, "/login", n.Redirect)
}

func TestListAddresses(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	token := f.tokenFor(t, userID)

	f.addresses.book = []address.Address{
		{ID: uuid.New(), UserID: userID, Line1: "21 Baker Street", Line2: "Flat 2", Country: "IN", Zip: "560001", Kind: address.KindShipping, IsDefault: true},
		{ID: uuid.New(), UserID: uuid.New(), Line1: "1 Other Road", Line2: "-", Country: "IN", Zip: "110001", Kind: address.KindBilling},
	}

	rec := f.request(t, http.MethodGet, "/addresses", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Addresses []bookAddressResponse `json:"addresses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "21 Baker Street", got.Addresses[0].Line1)
	assert.Equal(t, "shipping", got.Addresses[0].Kind)
	assert.True(t, got.Addresses[0].IsDefault)
}
