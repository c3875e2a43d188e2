// Package testutils provides in-memory collaborators for engine tests.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/storefront/pkg/domain"
)

// Shop is an in-memory Catalog, Cart and Customers implementation.
// Cart adds are deduplicated by nothing: every AddItem call increases the quantity.
// Errors can be injected per operation name ("ListProducts", "AddItem", ...).
type Shop struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	order     []string
	images    map[string]string
	prices    map[string]int64
	carts     map[string]map[string]*domain.LineItem
	emails    map[string]string
	calls     []string
	failures  map[string]error
	dedupAdds bool
	seenAdds  map[string]bool
}

// NewShop creates an empty shop.
func NewShop() *Shop {
	return &Shop{
		products: make(map[string]domain.Product),
		images:   make(map[string]string),
		prices:   make(map[string]int64),
		carts:    make(map[string]map[string]*domain.LineItem),
		emails:   make(map[string]string),
		failures: make(map[string]error),
		seenAdds: make(map[string]bool),
	}
}

// AddProduct registers a product with its unit price in minor units.
func (s *Shop) AddProduct(p domain.Product, unitPrice int64, imageURL string) *Shop {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.products[p.ID] = p
	s.prices[p.ID] = unitPrice
	if p.ImageRef != "" {
		s.images[p.ImageRef] = imageURL
	}
	return s
}

// RemoveProduct drops a product from the catalog (carts keep their lines).
func (s *Shop) RemoveProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// DedupAdds makes repeated AddItem calls with the same (user, product, qty) a no-op,
// emulating a cart service with idempotent writes.
func (s *Shop) DedupAdds() *Shop {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dedupAdds = true
	return s
}

// Fail makes the named operation return err until cleared with Fail(op, nil).
func (s *Shop) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns the operations invoked so far, in order.
func (s *Shop) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls clears the call log.
func (s *Shop) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Email returns the email recorded for userID.
func (s *Shop) Email(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emails[userID]
}

// Quantity returns how many units of productID are in userID's cart.
func (s *Shop) Quantity(userID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.carts[userID][productID]; ok {
		return l.Quantity
	}
	return 0
}

// enter records op and fails like a remote call would once ctx is done.
func (s *Shop) enter(ctx context.Context, op string) error {
	s.calls = append(s.calls, op)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	return s.failures[op]
}

func (s *Shop) ListProducts(ctx context.Context) ([]domain.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "ListProducts"); err != nil {
		return nil, err
	}
	out := make([]domain.ProductSummary, 0, len(s.order))
	for _, id := range s.order {
		p := s.products[id]
		out = append(out, domain.ProductSummary{ID: p.ID, Name: p.Name, PriceDisplay: p.PriceDisplay})
	}
	return out, nil
}

func (s *Shop) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "GetProduct"); err != nil {
		return nil, err
	}
	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Shop) GetImageURL(ctx context.Context, imageRef string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "GetImageURL"); err != nil {
		return "", err
	}
	return s.images[imageRef], nil
}

func (s *Shop) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "AddItem"); err != nil {
		return err
	}
	p, ok := s.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, domain.ErrUpstream)
	}
	if s.dedupAdds {
		key := fmt.Sprintf("%s/%s/%d", userID, productID, quantity)
		if s.seenAdds[key] {
			return nil
		}
		s.seenAdds[key] = true
	}
	cart, ok := s.carts[userID]
	if !ok {
		cart = make(map[string]*domain.LineItem)
		s.carts[userID] = cart
	}
	line, ok := cart[productID]
	if !ok {
		line = &domain.LineItem{ID: "line-" + productID, ProductID: productID, Name: p.Name, UnitPrice: s.prices[productID]}
		cart[productID] = line
	}
	line.Quantity += quantity
	return nil
}

func (s *Shop) RemoveItem(ctx context.Context, userID, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "RemoveItem"); err != nil {
		return err
	}
	if _, ok := s.carts[userID][productID]; !ok {
		return fmt.Errorf("cart line %s: %w", productID, domain.ErrNotFound)
	}
	delete(s.carts[userID], productID)
	return nil
}

func (s *Shop) Items(ctx context.Context, userID string) ([]domain.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "Items"); err != nil {
		return nil, err
	}
	out := make([]domain.LineItem, 0, len(s.carts[userID]))
	for _, l := range s.carts[userID] {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *Shop) RecordEmail(ctx context.Context, userID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(ctx, "RecordEmail"); err != nil {
		return err
	}
	s.emails[userID] = email
	return nil
}

// SampleShop returns a shop with two fish products.
func SampleShop() *Shop {
	return NewShop().
		AddProduct(domain.Product{
			ID: "p-salmon", Name: "Salmon", Description: "Fresh Atlantic salmon",
			PriceDisplay: "12.50 $", ImageRef: "img-salmon",
		}, 1250, "https://cdn.example.com/salmon.jpg").
		AddProduct(domain.Product{
			ID: "p-trout", Name: "Trout", Description: "River trout",
			PriceDisplay: "8.00 $",
		}, 800, "")
}
