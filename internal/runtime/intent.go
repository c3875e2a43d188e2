package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/storefront/pkg/domain"
)

// Intent is what an inbound event asks the engine to do.
type Intent string

const (
	IntentStart    Intent = "start"
	IntentCancel   Intent = "cancel"
	IntentMenu     Intent = "menu"
	IntentCart     Intent = "cart"
	IntentCheckout Intent = "checkout"
	IntentProduct  Intent = "product"
	IntentAdd      Intent = "add"
	IntentRemove   Intent = "remove"
	IntentText     Intent = "text"
	IntentUnknown  Intent = "unknown"
)

// Input is a classified event.
type Input struct {
	Intent    Intent
	ProductID string
	Quantity  int
	Text      string
}

// Classify maps an event to an Input.
// Unparseable callback tokens return an error wrapping domain.ErrMalformedEvent.
func Classify(ev domain.Event) (Input, error) {
	switch ev.Kind {
	case domain.EventCommand:
		switch strings.ToLower(ev.Command) {
		case domain.CommandStart:
			return Input{Intent: IntentStart}, nil
		case domain.CommandCancel:
			return Input{Intent: IntentCancel}, nil
		}
		return Input{Intent: IntentUnknown}, nil

	case domain.EventCallback:
		switch ev.Token {
		case domain.TokenMenu:
			return Input{Intent: IntentMenu}, nil
		case domain.TokenCart:
			return Input{Intent: IntentCart}, nil
		case domain.TokenCheckout:
			return Input{Intent: IntentCheckout}, nil
		case "":
			return Input{}, fmt.Errorf("%w: empty token", domain.ErrMalformedEvent)
		}
		if domain.IsCartToken(ev.Token) {
			tok, err := domain.ParseToken(ev.Token)
			if err != nil {
				return Input{}, err
			}
			if tok.Kind == domain.TokenRemove {
				return Input{Intent: IntentRemove, ProductID: tok.ProductID}, nil
			}
			return Input{Intent: IntentAdd, ProductID: tok.ProductID, Quantity: tok.Quantity}, nil
		}
		return Input{Intent: IntentProduct, ProductID: ev.Token}, nil

	case domain.EventText:
		return Input{Intent: IntentText, Text: ev.Text}, nil
	}
	return Input{}, fmt.Errorf("%w: unknown event kind %q", domain.ErrMalformedEvent, ev.Kind)
}
