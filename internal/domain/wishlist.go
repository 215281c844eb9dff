package domain

// WishlistEntry is a saved product reference. There is no quantity; a
// product is either in the wishlist or it is not.
type WishlistEntry struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Category  string `json:"category,omitempty"`
	UnitPrice int64  `json:"unit_price"`
}

// Wishlist is the ordered set of saved products for one session, at most
// one entry per product ID.
type Wishlist struct {
	Entries []WishlistEntry `json:"entries"`
}

// Contains reports whether the product is in the wishlist.
func (w *Wishlist) Contains(productID string) bool {
	return w.FindEntry(productID) >= 0
}

// FindEntry returns the index of the entry for the given product, or -1.
func (w *Wishlist) FindEntry(productID string) int {
	for i := range w.Entries {
		if w.Entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// NewWishlistEntry builds a wishlist entry from a product snapshot.
func NewWishlistEntry(p Product) WishlistEntry {
	return WishlistEntry{
		ProductID: p.ProductID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		UnitPrice: p.UnitPrice,
	}
}
