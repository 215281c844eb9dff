package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avelane/cartwish/internal/domain"
	"github.com/avelane/cartwish/internal/kvstore"
	"github.com/avelane/cartwish/internal/notify"
)

var storeMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cartwish_store_mutations_total",
		Help: "Total number of cart/wishlist store mutations by operation",
	},
	[]string{"op"},
)

// EventPublisher publishes domain events after successful mutations.
// event.Producer satisfies it; tests pass nil to skip publishing.
type EventPublisher interface {
	PublishCartUpdated(ctx context.Context, sessionID string, cart *domain.Cart) error
	PublishCartCleared(ctx context.Context, sessionID string) error
	PublishWishlistUpdated(ctx context.Context, sessionID string, wl *domain.Wishlist) error
}

// Store is the authoritative in-memory cart and wishlist state for one
// storefront session. It hydrates from the durable backing store at
// construction and writes the affected collection back after every
// mutation that changes state. Persistence failures are logged and
// swallowed: the in-memory state stays correct for the rest of the
// session, at the cost of a reload showing the last successfully
// persisted state.
//
// Consumers receive copies of the collections and must treat them as
// immutable snapshots; only the Store's own methods mutate state.
type Store struct {
	sessionID string
	backing   kvstore.Store
	notifier  notify.Notifier
	events    EventPublisher
	logger    *slog.Logger

	mu       sync.Mutex
	cart     domain.Cart
	wishlist domain.Wishlist
}

// New hydrates a store for the given session. Absent, malformed, or
// unreadable persisted data yields empty collections; construction never
// fails.
func New(ctx context.Context, sessionID string, backing kvstore.Store, notifier notify.Notifier, events EventPublisher, logger *slog.Logger) *Store {
	s := &Store{
		sessionID: sessionID,
		backing:   backing,
		notifier:  notifier,
		events:    events,
		logger:    logger,
	}

	s.cart.Items = s.hydrateCart(ctx)
	s.wishlist.Entries = s.hydrateWishlist(ctx)

	return s
}

func (s *Store) hydrateCart(ctx context.Context) []domain.LineItem {
	data, err := s.backing.Load(ctx, cartKey(s.sessionID))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "cart hydration failed, starting empty",
				slog.String("session_id", s.sessionID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	items, err := decodeCart(data)
	if err != nil {
		s.logger.WarnContext(ctx, "stored cart unreadable, starting empty",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return items
}

func (s *Store) hydrateWishlist(ctx context.Context) []domain.WishlistEntry {
	data, err := s.backing.Load(ctx, wishlistKey(s.sessionID))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "wishlist hydration failed, starting empty",
				slog.String("session_id", s.sessionID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}

	entries, err := decodeWishlist(data)
	if err != nil {
		s.logger.WarnContext(ctx, "stored wishlist unreadable, starting empty",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return entries
}

// --- Cart operations ---

// AddItem adds a quantity of the product to the cart. An existing line
// item is merged additively; a new one is appended, preserving insertion
// order. A non-positive quantity is normalized to 1 rather than rejected.
func (s *Store) AddItem(ctx context.Context, p domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.cart.FindItem(p.ProductID); i >= 0 {
		s.cart.Items[i].Quantity += quantity
		s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s quantity updated", s.cart.Items[i].Name)))
	} else {
		s.cart.Items = append(s.cart.Items, domain.NewLineItem(p, quantity))
		s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s added to cart", p.Name)))
	}

	storeMutationsTotal.WithLabelValues("cart_add").Inc()
	s.persistCart(ctx)
	s.publishCartUpdated(ctx)
}

// RemoveItem removes the product from the cart regardless of quantity.
// Removing an absent product is a silent no-op with no notification.
func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeItemLocked(ctx, productID)
}

func (s *Store) removeItemLocked(ctx context.Context, productID string) {
	i := s.cart.FindItem(productID)
	if i < 0 {
		return
	}

	name := s.cart.Items[i].Name
	s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
	s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s removed from cart", name)))

	storeMutationsTotal.WithLabelValues("cart_remove").Inc()
	s.persistCart(ctx)
	s.publishCartUpdated(ctx)
}

// SetQuantity sets the absolute quantity of a line item. A quantity of
// zero or below removes the item. Setting the quantity of an absent
// product is a no-op; it does not resurrect the item.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		s.removeItemLocked(ctx, productID)
		return
	}

	i := s.cart.FindItem(productID)
	if i < 0 {
		return
	}

	s.cart.Items[i].Quantity = quantity
	s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s quantity updated", s.cart.Items[i].Name)))

	storeMutationsTotal.WithLabelValues("cart_set_quantity").Inc()
	s.persistCart(ctx)
	s.publishCartUpdated(ctx)
}

// Clear empties the cart and persists the empty payload. The durable
// overwrite is explicit so a reload after Clear shows an empty cart, not
// the pre-clear state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Items = nil
	s.notifier.Notify(ctx, notify.Success("cart cleared"))

	storeMutationsTotal.WithLabelValues("cart_clear").Inc()
	s.persistCart(ctx)

	if s.events != nil {
		if err := s.events.PublishCartCleared(ctx, s.sessionID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
				slog.String("session_id", s.sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// TotalAmount returns the cart total in cents for the current state.
func (s *Store) TotalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.TotalAmount()
}

// ItemCount returns the total units in the cart, not distinct products.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

// Items returns a snapshot copy of the cart in insertion order.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.LineItem, len(s.cart.Items))
	copy(items, s.cart.Items)
	return items
}

// --- Wishlist operations ---

// AddToWishlist saves the product. Adding a product already present is an
// idempotent no-op with no duplicate entry and no second notification.
func (s *Store) AddToWishlist(ctx context.Context, p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wishlist.Contains(p.ProductID) {
		return
	}

	s.wishlist.Entries = append(s.wishlist.Entries, domain.NewWishlistEntry(p))
	s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s added to wishlist", p.Name)))

	storeMutationsTotal.WithLabelValues("wishlist_add").Inc()
	s.persistWishlist(ctx)
	s.publishWishlistUpdated(ctx)
}

// RemoveFromWishlist removes the product. Removing an absent product is a
// silent no-op with no notification.
func (s *Store) RemoveFromWishlist(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.wishlist.FindEntry(productID)
	if i < 0 {
		return
	}

	name := s.wishlist.Entries[i].Name
	s.wishlist.Entries = append(s.wishlist.Entries[:i], s.wishlist.Entries[i+1:]...)
	s.notifier.Notify(ctx, notify.Success(fmt.Sprintf("%s removed from your wishlist", name)))

	storeMutationsTotal.WithLabelValues("wishlist_remove").Inc()
	s.persistWishlist(ctx)
	s.publishWishlistUpdated(ctx)
}

// InWishlist reports whether the product is saved.
func (s *Store) InWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist.Contains(productID)
}

// WishlistEntries returns a snapshot copy of the wishlist in insertion
// order.
func (s *Store) WishlistEntries() []domain.WishlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.WishlistEntry, len(s.wishlist.Entries))
	copy(entries, s.wishlist.Entries)
	return entries
}

// --- persistence and events (called with s.mu held) ---

func (s *Store) persistCart(ctx context.Context) {
	data, err := encodeCart(s.cart.Items)
	if err == nil {
		err = s.backing.Save(ctx, cartKey(s.sessionID), data)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "cart persist failed, in-memory state remains authoritative",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) persistWishlist(ctx context.Context) {
	data, err := encodeWishlist(s.wishlist.Entries)
	if err == nil {
		err = s.backing.Save(ctx, wishlistKey(s.sessionID), data)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "wishlist persist failed, in-memory state remains authoritative",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) publishCartUpdated(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishCartUpdated(ctx, s.sessionID, &s.cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) publishWishlistUpdated(ctx context.Context) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishWishlistUpdated(ctx, s.sessionID, &s.wishlist); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()),
		)
	}
}
