package moltin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/aretw0/storefront/pkg/domain"
)

type cartItemRequest struct {
	Data struct {
		Type     string `json:"type"`
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	} `json:"data"`
}

type amount struct {
	Amount int64 `json:"amount"`
}

type cartItemResource struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice amount `json:"unit_price"`
	Value     amount `json:"value"`
}

// Carts are keyed by the conversation user id.
func cartPath(userID string) string {
	return "/v2/carts/" + url.PathEscape(userID) + "/items"
}

// AddItem adds quantity units of productID to userID's cart.
func (c *Client) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	var body cartItemRequest
	body.Data.Type = "cart_item"
	body.Data.ID = productID
	body.Data.Quantity = quantity
	return c.call(ctx, http.MethodPost, cartPath(userID), body, nil)
}

// Items returns the cart lines of userID.
func (c *Client) Items(ctx context.Context, userID string) ([]domain.LineItem, error) {
	var res []cartItemResource
	if err := c.call(ctx, http.MethodGet, cartPath(userID), nil, &res); err != nil {
		return nil, err
	}
	out := make([]domain.LineItem, 0, len(res))
	for _, it := range res {
		unit := it.UnitPrice.Amount
		if unit == 0 && it.Quantity > 0 {
			unit = it.Value.Amount / int64(it.Quantity)
		}
		out = append(out, domain.LineItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: unit,
			Quantity:  it.Quantity,
		})
	}
	return out, nil
}

// RemoveItem deletes every cart line of productID. The API addresses lines by
// their own id, so the cart is read first.
func (c *Client) RemoveItem(ctx context.Context, userID, productID string) error {
	lines, err := c.Items(ctx, userID)
	if err != nil {
		return err
	}
	removed := 0
	for _, l := range lines {
		if l.ProductID != productID {
			continue
		}
		if err := c.call(ctx, http.MethodDelete, cartPath(userID)+"/"+url.PathEscape(l.ID), nil, nil); err != nil {
			return err
		}
		removed++
	}
	if removed == 0 {
		return fmt.Errorf("%w: product %s not in cart", domain.ErrNotFound, productID)
	}
	return nil
}
