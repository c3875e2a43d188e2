package domain

// ProductSummary is one entry of the catalog listing.
type ProductSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PriceDisplay string `json:"price_display,omitempty"`
}

// Product is the full card of a catalog product.
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	PriceDisplay string `json:"price_display"`
	// ImageRef is the catalog's reference to the main image, resolved to a URL separately.
	ImageRef string `json:"image_ref,omitempty"`
}

// LineItem is one line of a user's cart as reported by the cart service.
type LineItem struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // minor currency units
	Quantity  int    `json:"quantity"`
}

// Cost is the line cost in minor units.
func (l LineItem) Cost() int64 {
	return l.UnitPrice * int64(l.Quantity)
}
