package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelane/cartwish/internal/catalog"
	"github.com/avelane/cartwish/internal/domain"
	"github.com/avelane/cartwish/internal/notify"
	"github.com/avelane/cartwish/internal/store"
	"github.com/avelane/cartwish/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	stores  *store.Manager
	catalog *catalog.Client
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler. The catalog client may be
// nil, in which case add requests must carry the full product snapshot.
func NewCartHandler(stores *store.Manager, cat *catalog.Client, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		stores:  stores,
		catalog: cat,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an item to the cart.
// Name and UnitPrice may be omitted when a catalog client is configured;
// the handler then resolves the snapshot by product ID.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Name      string `json:"name" validate:"max=500"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	UnitPrice int64  `json:"unit_price" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// UpdateQuantityRequest is the JSON request body for setting an item's
// quantity. Zero removes the item.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// --- Response DTOs ---

// CartResponse is the cart snapshot with its derived aggregates.
type CartResponse struct {
	Items       []domain.LineItem `json:"items"`
	TotalAmount int64             `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
}

// BadgeResponse is the minimal aggregate pair the storefront header polls.
type BadgeResponse struct {
	Count int   `json:"count"`
	Total int64 `json:"total"`
}

func cartSnapshot(s *store.Store) CartResponse {
	items := s.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponse{
		Items:       items,
		TotalAmount: s.TotalAmount(),
		ItemCount:   s.ItemCount(),
	}
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())
	s := h.stores.Get(r.Context(), sid)

	writeJSON(w, http.StatusOK, response{Data: cartSnapshot(s)})
}

// Badge handles GET /api/v1/cart/badge
func (h *CartHandler) Badge(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())
	s := h.stores.Get(r.Context(), sid)

	writeJSON(w, http.StatusOK, response{Data: BadgeResponse{
		Count: s.ItemCount(),
		Total: s.TotalAmount(),
	}})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	product, err := h.resolveProduct(r, req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	ctx, rec := notify.Recording(r.Context())
	s := h.stores.Get(ctx, sid)
	s.AddItem(ctx, product, req.Quantity)

	writeJSON(w, http.StatusOK, response{Data: cartSnapshot(s), Notice: rec.Sent()})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	ctx, rec := notify.Recording(r.Context())
	s := h.stores.Get(ctx, sid)
	s.SetQuantity(ctx, productID, req.Quantity)

	writeJSON(w, http.StatusOK, response{Data: cartSnapshot(s), Notice: rec.Sent()})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
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
	s.RemoveItem(ctx, productID)

	writeJSON(w, http.StatusOK, response{Data: cartSnapshot(s), Notice: rec.Sent()})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sid, _ := sessionIDFromContext(r.Context())

	ctx, rec := notify.Recording(r.Context())
	s := h.stores.Get(ctx, sid)
	s.Clear(ctx)

	writeJSON(w, http.StatusOK, response{Data: cartSnapshot(s), Notice: rec.Sent()})
}

// resolveProduct builds the add-time snapshot, asking the catalog service
// only when the request does not carry one.
func (h *CartHandler) resolveProduct(r *http.Request, req AddItemRequest) (domain.Product, error) {
	if req.Name != "" {
		return domain.Product{
			ProductID: req.ProductID,
			Name:      req.Name,
			ImageURL:  req.ImageURL,
			Category:  req.Category,
			UnitPrice: req.UnitPrice,
		}, nil
	}

	if h.catalog == nil {
		return domain.Product{}, errMissingSnapshot
	}

	p, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		return domain.Product{}, err
	}
	return *p, nil
}
