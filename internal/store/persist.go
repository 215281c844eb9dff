package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/avelane/cartwish/internal/domain"
)

// schemaVersion is the current shape of the persisted payloads. Version 0
// is the legacy bare JSON array written before the envelope existed; it is
// still accepted on read and upgraded on the next write.
const schemaVersion = 1

// Backing store key prefixes. One key per session and collection.
const (
	cartKeyPrefix     = "cartItems:"
	wishlistKeyPrefix = "wishlistItems:"
)

func cartKey(sessionID string) string     { return cartKeyPrefix + sessionID }
func wishlistKey(sessionID string) string { return wishlistKeyPrefix + sessionID }

type cartPayload struct {
	SchemaVersion int               `json:"schema_version"`
	Items         []domain.LineItem `json:"items"`
}

type wishlistPayload struct {
	SchemaVersion int                    `json:"schema_version"`
	Entries       []domain.WishlistEntry `json:"entries"`
}

func encodeCart(items []domain.LineItem) ([]byte, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	return json.Marshal(cartPayload{SchemaVersion: schemaVersion, Items: items})
}

func encodeWishlist(entries []domain.WishlistEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	return json.Marshal(wishlistPayload{SchemaVersion: schemaVersion, Entries: entries})
}

// decodeCart parses a persisted cart payload, accepting both the current
// envelope and the legacy bare array. Items violating the quantity
// invariant are dropped rather than resurrected as zero-quantity entries.
func decodeCart(data []byte) ([]domain.LineItem, error) {
	var items []domain.LineItem

	if isLegacyArray(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decode legacy cart payload: %w", err)
		}
		return sanitizeItems(items), nil
	}

	var payload cartPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode cart payload: %w", err)
	}
	if payload.SchemaVersion > schemaVersion {
		return nil, fmt.Errorf("unsupported cart schema version %d", payload.SchemaVersion)
	}
	return sanitizeItems(payload.Items), nil
}

// decodeWishlist parses a persisted wishlist payload, accepting both the
// current envelope and the legacy bare array.
func decodeWishlist(data []byte) ([]domain.WishlistEntry, error) {
	var entries []domain.WishlistEntry

	if isLegacyArray(data) {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode legacy wishlist payload: %w", err)
		}
		return dedupeEntries(entries), nil
	}

	var payload wishlistPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode wishlist payload: %w", err)
	}
	if payload.SchemaVersion > schemaVersion {
		return nil, fmt.Errorf("unsupported wishlist schema version %d", payload.SchemaVersion)
	}
	return dedupeEntries(payload.Entries), nil
}

func isLegacyArray(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}

func sanitizeItems(items []domain.LineItem) []domain.LineItem {
	out := items[:0]
	for _, item := range items {
		if item.ProductID == "" || item.Quantity < 1 {
			continue
		}
		out = append(out, item)
	}
	return out
}

func dedupeEntries(entries []domain.WishlistEntry) []domain.WishlistEntry {
	seen := make(map[string]struct{}, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if e.ProductID == "" {
			continue
		}
		if _, dup := seen[e.ProductID]; dup {
			continue
		}
		seen[e.ProductID] = struct{}{}
		out = append(out, e)
	}
	return out
}
