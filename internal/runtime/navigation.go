package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/storefront/pkg/domain"
)

type action func(e *Engine, ctx context.Context, userID string, in Input) (Outcome, error)

// transitions is the conversation table for the states at or after menu_shown.
// /start and /cancel are handled before the lookup since they apply to every state.
var transitions = map[domain.State]map[Intent]action{
	domain.StateMenuShown: {
		IntentMenu:    (*Engine).showMenu,
		IntentCart:    (*Engine).showCart,
		IntentProduct: (*Engine).showProduct,
	},
	domain.StateProductShown: {
		IntentMenu: (*Engine).showMenu,
		IntentCart: (*Engine).showCart,
		IntentAdd:  (*Engine).addToCart,
	},
	domain.StateCartShown: {
		IntentMenu:     (*Engine).showMenu,
		IntentCart:     (*Engine).showCart,
		IntentCheckout: (*Engine).askEmail,
		IntentRemove:   (*Engine).removeFromCart,
	},
	domain.StateWaitingEmail: {
		IntentMenu: (*Engine).showMenu,
		IntentCart: (*Engine).showCart,
		IntentText: (*Engine).takeEmail,
	},
}

// Accepts reports whether the intent has a transition out of state.
func Accepts(state domain.State, intent Intent) bool {
	if intent == IntentStart {
		return true
	}
	_, ok := transitions[state][intent]
	return ok
}

// ParseEmail accepts any text containing "@" and returns it trimmed.
func ParseEmail(text string) (string, bool) {
	email := strings.TrimSpace(text)
	if !strings.Contains(email, "@") {
		return "", false
	}
	return email, true
}

// targets is the state each table intent lands in when it is accepted.
var targets = map[Intent]domain.State{
	IntentMenu:     domain.StateMenuShown,
	IntentCart:     domain.StateCartShown,
	IntentProduct:  domain.StateProductShown,
	IntentAdd:      domain.StateProductShown,
	IntentRemove:   domain.StateCartShown,
	IntentCheckout: domain.StateWaitingEmail,
	IntentText:     domain.StateEnd,
}

// States lists every state in conversation order.
var States = []domain.State{
	domain.StateStart,
	domain.StateMenuShown,
	domain.StateProductShown,
	domain.StateCartShown,
	domain.StateWaitingEmail,
	domain.StateEnd,
}

// Edge is one accepted transition of the conversation.
type Edge struct {
	From   domain.State
	Intent Intent
	To     domain.State
}

// Edges returns the whole transition table, /start and /cancel included,
// in a stable order.
func Edges() []Edge {
	var edges []Edge
	for _, from := range States {
		edges = append(edges, Edge{From: from, Intent: IntentStart, To: domain.StateMenuShown})
		if from == domain.StateStart || from == domain.StateEnd {
			continue
		}
		for _, intent := range tableOrder {
			if _, ok := transitions[from][intent]; ok {
				edges = append(edges, Edge{From: from, Intent: intent, To: targets[intent]})
			}
		}
		edges = append(edges, Edge{From: from, Intent: IntentCancel, To: domain.StateEnd})
	}
	return edges
}

var tableOrder = []Intent{
	IntentProduct,
	IntentAdd,
	IntentRemove,
	IntentMenu,
	IntentCart,
	IntentCheckout,
	IntentText,
}
