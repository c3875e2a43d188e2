package moltin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aretw0/storefront/pkg/domain"
)

type displayPrice struct {
	WithTax struct {
		Formatted string `json:"formatted"`
	} `json:"with_tax"`
}

type productResource struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"attributes"`
	Meta struct {
		DisplayPrice displayPrice `json:"display_price"`
	} `json:"meta"`
	Relationships struct {
		MainImage struct {
			Data struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"main_image"`
	} `json:"relationships"`
}

type fileResource struct {
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}

// ListProducts returns the catalog in API order.
func (c *Client) ListProducts(ctx context.Context) ([]domain.ProductSummary, error) {
	var res []productResource
	if err := c.call(ctx, http.MethodGet, "/pcm/products", nil, &res); err != nil {
		return nil, err
	}
	out := make([]domain.ProductSummary, 0, len(res))
	for _, p := range res {
		out = append(out, domain.ProductSummary{
			ID:           p.ID,
			Name:         p.Attributes.Name,
			PriceDisplay: p.Meta.DisplayPrice.WithTax.Formatted,
		})
	}
	return out, nil
}

// GetProduct returns the full product. A missing product yields domain.ErrNotFound.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p productResource
	if err := c.call(ctx, http.MethodGet, "/catalog/products/"+url.PathEscape(productID), nil, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNotFound, productID)
	}
	return &domain.Product{
		ID:           p.ID,
		Name:         p.Attributes.Name,
		Description:  p.Attributes.Description,
		PriceDisplay: p.Meta.DisplayPrice.WithTax.Formatted,
		ImageRef:     p.Relationships.MainImage.Data.ID,
	}, nil
}

// GetImageURL resolves a file id to its public link.
func (c *Client) GetImageURL(ctx context.Context, imageRef string) (string, error) {
	var f fileResource
	if err := c.call(ctx, http.MethodGet, "/v2/files/"+url.PathEscape(imageRef), nil, &f); err != nil {
		return "", err
	}
	if f.Link.Href == "" {
		return "", fmt.Errorf("%w: file %s has no link", domain.ErrUpstream, imageRef)
	}
	return f.Link.Href, nil
}
