package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/avelane/cartwish/pkg/kafka"

	"github.com/avelane/cartwish/internal/domain"
)

// Kafka topics for storefront cart and wishlist events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartCleared     = "storefront.cart.cleared"
	TopicWishlistUpdated = "storefront.wishlist.updated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// Source identifier for events originating from this service.
const SourceCartwish = "cartwish-service"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID   string            `json:"session_id"`
	Items       []domain.LineItem `json:"items"`
	ItemCount   int               `json:"item_count"`
	TotalAmount int64             `json:"total_amount"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	SessionID string                 `json:"session_id"`
	Entries   []domain.WishlistEntry `json:"entries"`
}

// Producer publishes cart and wishlist domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishCartUpdated publishes a cart.updated event with the full cart
// snapshot and derived aggregates.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data := CartUpdatedData{
		SessionID:   sessionID,
		Items:       cart.Items,
		ItemCount:   cart.ItemCount(),
		TotalAmount: cart.TotalAmount(),
	}

	evt, err := pkgkafka.NewEvent(TopicCartUpdated, sessionID, AggregateTypeCart, SourceCartwish, data)
	if err != nil {
		return fmt.Errorf("create cart.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartUpdated, evt); err != nil {
		return fmt.Errorf("publish cart.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("item_count", data.ItemCount),
	)

	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	evt, err := pkgkafka.NewEvent(TopicCartCleared, sessionID, AggregateTypeCart, SourceCartwish, CartClearedData{SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("create cart.cleared event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicCartCleared, evt); err != nil {
		return fmt.Errorf("publish cart.cleared event: %w", err)
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)

	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event with the full
// wishlist snapshot.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, sessionID string, wl *domain.Wishlist) error {
	data := WishlistUpdatedData{SessionID: sessionID, Entries: wl.Entries}

	evt, err := pkgkafka.NewEvent(TopicWishlistUpdated, sessionID, AggregateTypeWishlist, SourceCartwish, data)
	if err != nil {
		return fmt.Errorf("create wishlist.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicWishlistUpdated, evt); err != nil {
		return fmt.Errorf("publish wishlist.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("session_id", sessionID),
		slog.Int("entries", len(wl.Entries)),
	)

	return nil
}
