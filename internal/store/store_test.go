package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelane/cartwish/internal/domain"
	"github.com/avelane/cartwish/internal/kvstore/memory"
	"github.com/avelane/cartwish/internal/notify"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) (*Store, *memory.Store, *notify.Recorder) {
	t.Helper()
	backing := memory.New()
	rec := notify.NewRecorder()
	s := New(context.Background(), "sess-1", backing, rec, nil, newTestLogger())
	return s, backing, rec
}

func widget() domain.Product {
	return domain.Product{
		ProductID: "p-widget",
		Name:      "Widget",
		ImageURL:  "https://img.example.com/widget.jpg",
		Category:  "gadgets",
		UnitPrice: 1000,
	}
}

func gizmo() domain.Product {
	return domain.Product{
		ProductID: "p-gizmo",
		Name:      "Gizmo",
		Category:  "gadgets",
		UnitPrice: 550,
	}
}

// --- Cart: add ---

func TestAddItem_NewItemAppends(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p-widget", items[0].ProductID)
	assert.Equal(t, "Widget", items[0].Name)
	assert.Equal(t, "gadgets", items[0].Category)
	assert.Equal(t, int64(1000), items[0].UnitPrice)
	assert.Equal(t, 2, items[0].Quantity)

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, notify.LevelSuccess, sent[0].Level)
	assert.Equal(t, "Widget added to cart", sent[0].Message)
}

func TestAddItem_MergesQuantity(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)
	s.AddItem(ctx, widget(), 3)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)

	sent := rec.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Widget quantity updated", sent[1].Message)
}

func TestAddItem_NonPositiveQuantityNormalizedToOne(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 0)
	s.AddItem(ctx, gizmo(), -5)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 1)
	s.AddItem(ctx, gizmo(), 1)
	s.AddItem(ctx, widget(), 1) // merge must not reorder

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p-widget", items[0].ProductID)
	assert.Equal(t, "p-gizmo", items[1].ProductID)
}

// --- Cart: remove ---

func TestRemoveItem_RemovesRegardlessOfQuantity(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 7)
	rec.Reset()

	s.RemoveItem(ctx, "p-widget")

	assert.Empty(t, s.Items())

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Widget removed from cart", sent[0].Message)
}

func TestRemoveItem_AbsentIsSilentNoop(t *testing.T) {
	s, _, rec := newTestStore(t)

	assert.NotPanics(t, func() {
		s.RemoveItem(context.Background(), "p-never-added")
	})
	assert.Empty(t, rec.Sent())
}

// --- Cart: set quantity ---

func TestSetQuantity_AbsoluteSet(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)
	s.SetQuantity(ctx, "p-widget", 9)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 9, items[0].Quantity)
}

func TestSetQuantity_ZeroCollapsesToRemoval(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 3)
	rec.Reset()

	s.SetQuantity(ctx, "p-widget", 0)

	assert.Empty(t, s.Items())

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Widget removed from cart", sent[0].Message)
}

func TestSetQuantity_NegativeCollapsesToRemoval(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 3)
	s.SetQuantity(ctx, "p-widget", -5)

	assert.Empty(t, s.Items())
}

func TestSetQuantity_AbsentDoesNotResurrect(t *testing.T) {
	s, _, rec := newTestStore(t)

	s.SetQuantity(context.Background(), "p-widget", 4)

	assert.Empty(t, s.Items())
	assert.Empty(t, rec.Sent())
}

// --- Cart: aggregates ---

func TestTotalAmount_SumOfPriceTimesQuantity(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	// Widget: 10.00 x 2, Gizmo: 5.50 x 1 => 25.50
	s.AddItem(ctx, widget(), 2)
	s.AddItem(ctx, gizmo(), 1)

	assert.Equal(t, int64(2550), s.TotalAmount())
}

func TestTotalAmount_EmptyCartIsZero(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.Equal(t, int64(0), s.TotalAmount())
}

func TestItemCount_SumsUnitsNotProducts(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)
	s.AddItem(ctx, gizmo(), 1)

	assert.Equal(t, 3, s.ItemCount())
}

func TestAggregates_ConsistentImmediatelyAfterMutation(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)
	assert.Equal(t, int64(2000), s.TotalAmount())

	s.SetQuantity(ctx, "p-widget", 1)
	assert.Equal(t, int64(1000), s.TotalAmount())
	assert.Equal(t, 1, s.ItemCount())
}

// --- Cart: clear ---

func TestClear_EmptiesCartAndPersistsDurably(t *testing.T) {
	s, backing, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)
	s.Clear(ctx)

	assert.Empty(t, s.Items())

	// Simulated reload: a fresh store over the same backing must see the
	// cleared cart, proving the clear was written through.
	reloaded := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())
	assert.Empty(t, reloaded.Items())
}

// --- Persistence round-trip ---

func TestHydration_RoundTripReproducesState(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()

	first := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())
	first.AddItem(ctx, widget(), 2)
	first.AddItem(ctx, gizmo(), 1)
	first.AddToWishlist(ctx, gizmo())

	// Discard the first store; hydrate a fresh one from durable state.
	second := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())

	items := second.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "p-widget", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "p-gizmo", items[1].ProductID)
	assert.Equal(t, 1, items[1].Quantity)

	assert.True(t, second.InWishlist("p-gizmo"))
	assert.Equal(t, int64(2550), second.TotalAmount())
}

func TestHydration_SessionsAreIsolated(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()

	a := New(ctx, "sess-a", backing, notify.NewRecorder(), nil, newTestLogger())
	a.AddItem(ctx, widget(), 1)

	b := New(ctx, "sess-b", backing, notify.NewRecorder(), nil, newTestLogger())
	assert.Empty(t, b.Items())
}

func TestHydration_MalformedCartStartsEmpty(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, "cartItems:sess-1", []byte("{{not-valid-json")))

	var s *Store
	assert.NotPanics(t, func() {
		s = New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())
	})
	assert.Empty(t, s.Items())
	assert.Equal(t, int64(0), s.TotalAmount())
}

func TestHydration_MalformedWishlistStartsEmpty(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, "wishlistItems:sess-1", []byte(`"just a string"`)))

	s := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())
	assert.Empty(t, s.WishlistEntries())
}

func TestHydration_LegacyBareArrayMigrates(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()

	legacy := `[{"product_id":"p-old","name":"Old Thing","unit_price":700,"quantity":2}]`
	require.NoError(t, backing.Save(ctx, "cartItems:sess-1", []byte(legacy)))

	s := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p-old", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestHydration_FutureSchemaVersionStartsEmpty(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()

	future := `{"schema_version":99,"items":[{"product_id":"p-1","quantity":1}]}`
	require.NoError(t, backing.Save(ctx, "cartItems:sess-1", []byte(future)))

	s := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())
	assert.Empty(t, s.Items())
}

func TestHydration_DropsInvalidQuantities(t *testing.T) {
	backing := memory.New()
	ctx := context.Background()

	drifted := `{"schema_version":1,"items":[{"product_id":"p-ok","name":"OK","unit_price":100,"quantity":1},{"product_id":"p-zero","quantity":0}]}`
	require.NoError(t, backing.Save(ctx, "cartItems:sess-1", []byte(drifted)))

	s := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p-ok", items[0].ProductID)
}

// --- Persistence failure policy ---

func TestMutations_SurvivePersistFailure(t *testing.T) {
	backing := memory.New()
	backing.FailSaves = errors.New("quota exceeded")
	ctx := context.Background()

	s := New(ctx, "sess-1", backing, notify.NewRecorder(), nil, newTestLogger())

	assert.NotPanics(t, func() {
		s.AddItem(ctx, widget(), 2)
	})

	// In-memory state stays authoritative for the session.
	require.Len(t, s.Items(), 1)
	assert.Equal(t, int64(2000), s.TotalAmount())

	// Nothing reached durable storage.
	assert.Equal(t, 0, backing.Len())
}

// --- Wishlist ---

func TestAddToWishlist_FirstAdd(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddToWishlist(ctx, widget())

	assert.True(t, s.InWishlist("p-widget"))

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Widget added to wishlist", sent[0].Message)
}

func TestAddToWishlist_IdempotentSingleNotification(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddToWishlist(ctx, widget())
	s.AddToWishlist(ctx, widget())

	entries := s.WishlistEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "p-widget", entries[0].ProductID)

	// Only the first add notifies.
	assert.Len(t, rec.Sent(), 1)
}

func TestRemoveFromWishlist(t *testing.T) {
	s, _, rec := newTestStore(t)
	ctx := context.Background()

	s.AddToWishlist(ctx, widget())
	rec.Reset()

	s.RemoveFromWishlist(ctx, "p-widget")

	assert.False(t, s.InWishlist("p-widget"))

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Widget removed from your wishlist", sent[0].Message)
}

func TestRemoveFromWishlist_AbsentIsSilentNoop(t *testing.T) {
	s, _, rec := newTestStore(t)

	s.RemoveFromWishlist(context.Background(), "p-never-saved")
	assert.Empty(t, rec.Sent())
}

func TestWishlist_IndependentOfCart(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToWishlist(ctx, widget())
	s.AddItem(ctx, widget(), 1)
	s.Clear(ctx)

	// Clearing the cart leaves the wishlist untouched.
	assert.True(t, s.InWishlist("p-widget"))
}

// --- Snapshot semantics ---

func TestItems_ReturnsCopy(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, widget(), 2)

	items := s.Items()
	items[0].Quantity = 999

	assert.Equal(t, 2, s.Items()[0].Quantity)
}

func TestWishlistEntries_ReturnsCopy(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	s.AddToWishlist(ctx, widget())

	entries := s.WishlistEntries()
	entries[0].Name = "tampered"

	assert.Equal(t, "Widget", s.WishlistEntries()[0].Name)
}
