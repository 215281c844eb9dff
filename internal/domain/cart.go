package domain

// Product is the add-time snapshot of a catalog product. The display
// fields are denormalized into line items and wishlist entries when the
// shopper acts, not re-fetched afterwards.
type Product struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Category  string `json:"category,omitempty"`
	UnitPrice int64  `json:"unit_price"`
}

// LineItem represents one product quantity in the cart.
//
// Quantity is always >= 1 for a stored item; an item that would reach zero
// or below is removed from the cart instead.
type LineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Category  string `json:"category,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Cart is the ordered collection of line items for one session.
// Insertion order is display order.
type Cart struct {
	Items []LineItem `json:"items"`
}

// TotalAmount returns the cart total in cents.
func (c *Cart) TotalAmount() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// ItemCount returns the total number of units across all line items, not
// the number of distinct products.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// FindItem returns the index of the line item for the given product, or -1.
func (c *Cart) FindItem(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// NewLineItem builds a line item from a product snapshot.
func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ProductID: p.ProductID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		UnitPrice: p.UnitPrice,
		Quantity:  quantity,
	}
}
