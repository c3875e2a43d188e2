package ports

import (
	"context"

	"github.com/aretw0/storefront/pkg/domain"
)

// EventHandler is the entry point transports drive.
// It is implemented by storefront.Engine.
type EventHandler interface {
	HandleEvent(ctx context.Context, userID string, ev domain.Event) (domain.Reply, error)
}
