package ports

import (
	"context"

	"github.com/aretw0/storefront/pkg/domain"
)

// Catalog reads products. Failures wrap domain.ErrUpstream.
type Catalog interface {
	ListProducts(ctx context.Context) ([]domain.ProductSummary, error)

	// GetProduct returns domain.ErrNotFound when the product does not exist.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// GetImageURL resolves a product image reference to a public URL.
	GetImageURL(ctx context.Context, imageRef string) (string, error)
}

// Cart mutates and reads the per-user cart. Carts are keyed by user ID.
type Cart interface {
	AddItem(ctx context.Context, userID, productID string, quantity int) error

	// RemoveItem returns domain.ErrNotFound when the product is not in the cart.
	RemoveItem(ctx context.Context, userID, productID string) error

	Items(ctx context.Context, userID string) ([]domain.LineItem, error)
}

// Customers records customer contact details.
type Customers interface {
	RecordEmail(ctx context.Context, userID, email string) error
}
