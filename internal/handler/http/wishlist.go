package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelane/cartwish/internal/catalog"
	"github.com/avelane/cartwish/internal/domain"
	"github.com/avelane/cartwish/internal/notify"
	"github.com/avelane/cartwish/internal/store"
	"github.com/avelane/cartwish/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	stores  *store.Manager
	catalog *catalog.Client
	logger  *slog.Logger
}

func NewWishlistHandler(stores *store.Manager, cat *catalog.Client, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		stores:  stores,
		catalog: cat,
		logger:  logger,
	}
}

// SaveRequest is the optional JSON body for saving an item. When absent or
// incomplete, the snapshot is resolved through the catalog client.
type SaveRequest struct {
	Name      string `json:"name" validate:"max=500"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
}

// WishlistResponse is the saved-items snapshot.
type WishlistResponse struct {
	Entries []domain.WishlistEntry `json:"entries"`
}

// MembershipResponse reports whether a single product is saved.
type MembershipResponse struct {
	ProductID  string `json:"product_id"`
	InWishlist bool   `json:"in_wishlist"`
}

// List handles GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())
	s := h.stores.Get(r.Context(), sid)

	entries := s.WishlistEntries()
	if entries == nil {
		entries = []domain.WishlistEntry{}
	}
	writeJSON(w, http.StatusOK, response{Data: WishlistResponse{Entries: entries}})
}

// Save handles POST /api/v1/wishlist/{productId}
func (h *WishlistHandler) Save(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	product, err := h.resolveProduct(r, productID, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ctx, rec := notify.Recording(r.Context())
	s := h.stores.Get(ctx, sid)
	s.AddToWishlist(ctx, product)

	writeJSON(w, http.StatusOK, response{
		Data:   MembershipResponse{ProductID: productID, InWishlist: true},
		Notice: rec.Sent(),
	})
}

// Remove handles DELETE /api/v1/wishlist/{productId}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	ctx, rec := notify.Recording(r.Context())
	s := h.stores.Get(ctx, sid)
	s.RemoveFromWishlist(ctx, productID)

	writeJSON(w, http.StatusOK, response{
		Data:   MembershipResponse{ProductID: productID, InWishlist: false},
		Notice: rec.Sent(),
	})
}

// Contains handles GET /api/v1/wishlist/{productId}
func (h *WishlistHandler) Contains(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	s := h.stores.Get(r.Context(), sid)

	writeJSON(w, http.StatusOK, response{Data: MembershipResponse{
		ProductID:  productID,
		InWishlist: s.InWishlist(productID),
	}})
}

func (h *WishlistHandler) resolveProduct(r *http.Request, productID string, req SaveRequest) (domain.Product, error) {
	if req.Name != "" {
		return domain.Product{
			ProductID: productID,
			Name:      req.Name,
			ImageURL:  req.ImageURL,
			Category:  req.Category,
			UnitPrice: req.UnitPrice,
		}, nil
	}

	if h.catalog == nil {
		return domain.Product{}, errMissingSnapshot
	}

	p, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}
