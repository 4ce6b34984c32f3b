package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appie1702/storefront/internal/domain/catalog"
	"github.com/appie1702/storefront/internal/domain/coupon"
)

// --- Mock implementations ---

type mockItemRepo struct {
	bySlug map[string]*catalog.Item
}

func (m *mockItemRepo) List(_ context.Context, _ string, _, _ int) (*catalog.Page, error) {
	return &catalog.Page{}, nil
}

func (m *mockItemRepo) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	it, ok := m.bySlug[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return it, nil
}

func (m *mockItemRepo) Create(_ context.Context, _ *catalog.Item) error { return nil }

type mockOrderRepo struct {
	open      *Order
	createErr error

	created    *Order
	addedLines []*Line
	setQty     map[uuid.UUID]int
	deleted    []uuid.UUID
	attached   []string
	flagged    []uuid.UUID
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{setQty: make(map[uuid.UUID]int)}
}

func (m *mockOrderRepo) Open(_ context.Context, _ uuid.UUID) (*Order, error) {
	if m.open == nil {
		return nil, ErrNoOpenOrder
	}
	return m.open, nil
}

func (m *mockOrderRepo) ByRefCode(_ context.Context, _ string) (*Order, error) {
	return nil, ErrNotFound
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = o
	return nil
}

func (m *mockOrderRepo) AddLine(_ context.Context, l *Line) error {
	m.addedLines = append(m.addedLines, l)
	return nil
}

func (m *mockOrderRepo) SetLineQuantity(_ context.Context, lineID uuid.UUID, quantity int) error {
	m.setQty[lineID] = quantity
	return nil
}

func (m *mockOrderRepo) DeleteLine(_ context.Context, lineID uuid.UUID) error {
	m.deleted = append(m.deleted, lineID)
	return nil
}

func (m *mockOrderRepo) AttachCoupon(_ context.Context, _ uuid.UUID, code string) error {
	m.attached = append(m.attached, code)
	return nil
}

func (m *mockOrderRepo) MarkRefundRequested(_ context.Context, orderID uuid.UUID) error {
	m.flagged = append(m.flagged, orderID)
	return nil
}

type mockCouponRepo struct {
	byCode map[string]*coupon.Coupon
}

func (m *mockCouponRepo) ByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) Create(_ context.Context, _ *coupon.Coupon) error { return nil }

// --- Helpers ---

func newTestItem(slug, title string, price string, discount *string) catalog.Item {
	it := catalog.Item{
		ID:       uuid.New(),
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: "shirt",
		Label:    "primary",
		Slug:     slug,
	}
	if discount != nil {
		d := decimal.RequireFromString(*discount)
		it.DiscountPrice = &d
	}
	return it
}

func newItemRepo(items ...catalog.Item) *mockItemRepo {
	bySlug := make(map[string]*catalog.Item, len(items))
	for i := range items {
		bySlug[items[i].Slug] = &items[i]
	}
	return &mockItemRepo{bySlug: bySlug}
}

func openOrderWith(userID uuid.UUID, items ...catalog.Item) *Order {
	o := &Order{ID: uuid.New(), UserID: userID}
	for _, it := range items {
		o.Lines = append(o.Lines, Line{
			ID:       uuid.New(),
			UserID:   userID,
			OrderID:  o.ID,
			ItemID:   it.ID,
			Item:     it,
			Quantity: 1,
		})
	}
	return o
}

// --- Tests ---

func TestAddItem_CreatesOpenOrder(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	added, err := svc.AddItem(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.True(t, added)
	require.NotNil(t, orders.created)
	require.Len(t, orders.created.Lines, 1)
	assert.Equal(t, shirt.ID, orders.created.Lines[0].ItemID)
	assert.Equal(t, 1, orders.created.Lines[0].Quantity)
}

func TestAddItem_UnknownItem(t *testing.T) {
	svc := NewService(newItemRepo(), newMockOrderRepo(), &mockCouponRepo{})

	_, err := svc.AddItem(context.Background(), uuid.New(), "missing")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestAddItem_AlreadyInCartIsNoOp(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	added, err := svc.AddItem(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.False(t, added)
	assert.Empty(t, orders.addedLines, "quantity changes only through IncreaseQuantity")
}

func TestAddItem_SecondItemJoinsOpenOrder(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	tee := newTestItem("trail-tee", "Trail Tee", "34.50", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	svc := NewService(newItemRepo(shirt, tee), orders, &mockCouponRepo{})

	added, err := svc.AddItem(context.Background(), userID, "trail-tee")

	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, orders.addedLines, 1)
	assert.Equal(t, orders.open.ID, orders.addedLines[0].OrderID)
	assert.Equal(t, tee.ID, orders.addedLines[0].ItemID)
}

// raceOrderRepo simulates a concurrent first add: Create loses the race
// and Open returns the winner's order afterwards.
type raceOrderRepo struct {
	*mockOrderRepo
	winner *Order
}

func (m *raceOrderRepo) Create(_ context.Context, _ *Order) error {
	m.open = m.winner
	return ErrOpenOrderExists
}

func TestAddItem_CreateRaceAttachesToWinner(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	winner := openOrderWith(userID)
	orders := &raceOrderRepo{mockOrderRepo: newMockOrderRepo(), winner: winner}
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	added, err := svc.AddItem(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, orders.addedLines, 1)
	assert.Equal(t, winner.ID, orders.addedLines[0].OrderID)
}

func TestRemoveItem(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	orders.open.Lines[0].Quantity = 3
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	err := svc.RemoveItem(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	require.Len(t, orders.deleted, 1, "removal drops the whole line regardless of quantity")
	assert.Equal(t, orders.open.Lines[0].ID, orders.deleted[0])
}

func TestRemoveItem_NoOpenOrder(t *testing.T) {
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	svc := NewService(newItemRepo(shirt), newMockOrderRepo(), &mockCouponRepo{})

	err := svc.RemoveItem(context.Background(), uuid.New(), "oxford-shirt")
	require.ErrorIs(t, err, ErrNoOpenOrder)
}

func TestRemoveItem_NotInCart(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	tee := newTestItem("trail-tee", "Trail Tee", "34.50", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	svc := NewService(newItemRepo(shirt, tee), orders, &mockCouponRepo{})

	err := svc.RemoveItem(context.Background(), userID, "trail-tee")
	require.ErrorIs(t, err, ErrItemNotInCart)
}

func TestIncreaseQuantity(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	orders.open.Lines[0].Quantity = 2
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	err := svc.IncreaseQuantity(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.Equal(t, 3, orders.setQty[orders.open.Lines[0].ID])
}

func TestDecreaseQuantity_AboveOne(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	orders.open.Lines[0].Quantity = 2
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	removed, err := svc.DecreaseQuantity(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, orders.setQty[orders.open.Lines[0].ID])
	assert.Empty(t, orders.deleted)
}

func TestDecreaseQuantity_AtOneRemovesLine(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	removed, err := svc.DecreaseQuantity(context.Background(), userID, "oxford-shirt")

	require.NoError(t, err)
	assert.True(t, removed)
	require.Len(t, orders.deleted, 1)
	assert.Empty(t, orders.setQty)
}

func TestApplyCoupon(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"WELCOME10": {Code: "WELCOME10", Amount: decimal.NewFromInt(10)},
	}}
	svc := NewService(newItemRepo(shirt), orders, coupons)

	err := svc.ApplyCoupon(context.Background(), userID, "WELCOME10")

	require.NoError(t, err)
	assert.Equal(t, []string{"WELCOME10"}, orders.attached)
}

func TestApplyCoupon_Unknown(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	svc := NewService(newItemRepo(shirt), orders, &mockCouponRepo{})

	err := svc.ApplyCoupon(context.Background(), userID, "BOGUS")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestApplyCoupon_AlreadyApplied(t *testing.T) {
	userID := uuid.New()
	shirt := newTestItem("oxford-shirt", "Oxford Shirt", "49.99", nil)
	orders := newMockOrderRepo()
	orders.open = openOrderWith(userID, shirt)
	orders.open.Coupon = &coupon.Coupon{Code: "WELCOME10", Amount: decimal.NewFromInt(10)}
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{
		"WELCOME10": {Code: "WELCOME10", Amount: decimal.NewFromInt(10)},
	}}
	svc := NewService(newItemRepo(shirt), orders, coupons)

	err := svc.ApplyCoupon(context.Background(), userID, "WELCOME10")
	require.ErrorIs(t, err, ErrCouponAlreadyApplied)
	assert.Empty(t, orders.attached)
}

func TestApplyCoupon_NoOpenOrder(t *testing.T) {
	svc := NewService(newItemRepo(), newMockOrderRepo(), &mockCouponRepo{})

	err := svc.ApplyCoupon(context.Background(), uuid.New(), "WELCOME10")
	require.ErrorIs(t, err, ErrNoOpenOrder)
}
