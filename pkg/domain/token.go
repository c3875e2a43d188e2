package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTokenQuantity bounds the quantity carried by an add token.
const MaxTokenQuantity = 1000

// Fixed navigation tokens.
const (
	TokenMenu     = "menu"
	TokenCart     = "cart"
	TokenCheckout = "checkout"
)

const (
	tokenSep    = "|"
	tokenRemove = "del"
)

// TokenKind distinguishes cart mutation tokens.
type TokenKind int

const (
	TokenAdd TokenKind = iota + 1
	TokenRemove
)

// CartToken is a parsed "<qty>|<id>" or "del|<id>" callback payload.
type CartToken struct {
	Kind      TokenKind
	Quantity  int
	ProductID string
}

// IsCartToken reports whether raw has the shape of a cart mutation token.
func IsCartToken(raw string) bool {
	return strings.Contains(raw, tokenSep)
}

// ParseToken parses a cart mutation token.
// Errors wrap ErrMalformedEvent.
func ParseToken(raw string) (CartToken, error) {
	left, right, ok := strings.Cut(raw, tokenSep)
	if !ok {
		return CartToken{}, fmt.Errorf("%w: token %q has no separator", ErrMalformedEvent, raw)
	}
	if right == "" || strings.Contains(right, tokenSep) {
		return CartToken{}, fmt.Errorf("%w: token %q has invalid product id", ErrMalformedEvent, raw)
	}
	if left == tokenRemove {
		return CartToken{Kind: TokenRemove, ProductID: right}, nil
	}
	if left == "" || strings.TrimLeft(left, "0123456789") != "" {
		return CartToken{}, fmt.Errorf("%w: token %q has invalid quantity", ErrMalformedEvent, raw)
	}
	qty, err := strconv.Atoi(left)
	if err != nil || qty < 1 || qty > MaxTokenQuantity {
		return CartToken{}, fmt.Errorf("%w: token %q quantity out of range", ErrMalformedEvent, raw)
	}
	return CartToken{Kind: TokenAdd, Quantity: qty, ProductID: right}, nil
}

// AddToken formats the token for adding qty units of productID.
func AddToken(qty int, productID string) string {
	return strconv.Itoa(qty) + tokenSep + productID
}

// RemoveToken formats the token for removing productID from the cart.
func RemoveToken(productID string) string {
	return tokenRemove + tokenSep + productID
}
