package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
)

// Outcome is the result of a single step.
type Outcome struct {
	Reply domain.Reply

	// Next is the state to persist. Only meaningful when Persist is true.
	Next domain.State

	// Persist is true when the step accepted a transition.
	Persist bool

	// Ignored carries the reason when the event was absorbed.
	Ignored string
}

// Engine is the conversation state machine.
// It is stateless: the caller supplies the current state and persists Outcome.Next.
type Engine struct {
	catalog   ports.Catalog
	cart      ports.Cart
	customers ports.Customers
	phrases   phrases.Phrases
}

// NewEngine creates a new engine with its collaborators.
func NewEngine(catalog ports.Catalog, cart ports.Cart, customers ports.Customers, p phrases.Phrases) *Engine {
	return &Engine{
		catalog:   catalog,
		cart:      cart,
		customers: customers,
		phrases:   p,
	}
}

// Phrases returns the copy deck the engine renders with.
func (e *Engine) Phrases() phrases.Phrases {
	return e.phrases
}

// Step applies one classified input to the current state.
// Collaborator failures are returned as errors; the caller decides the reply.
func (e *Engine) Step(ctx context.Context, userID string, current domain.State, in Input) (Outcome, error) {
	if in.Intent == IntentStart {
		return e.showMenu(ctx, userID, in)
	}

	if current == domain.StateStart || !current.Valid() {
		return Outcome{Reply: domain.Reply{Text: e.phrases.SendStart}, Ignored: "no active conversation"}, nil
	}

	if in.Intent == IntentCancel {
		return Outcome{Reply: domain.Reply{Text: e.phrases.Farewell}, Next: domain.StateEnd, Persist: true}, nil
	}

	if current == domain.StateEnd {
		if in.Intent == IntentText || in.Intent == IntentUnknown {
			return ignored("conversation ended"), nil
		}
		return Outcome{Reply: domain.Reply{Text: e.phrases.SendStart}, Ignored: "conversation ended"}, nil
	}

	act, ok := transitions[current][in.Intent]
	if !ok {
		return ignored(fmt.Sprintf("%s not accepted in %s", in.Intent, current)), nil
	}
	return act(e, ctx, userID, in)
}

func ignored(reason string) Outcome {
	return Outcome{Reply: domain.NoReply, Ignored: reason}
}

func accepted(reply domain.Reply, next domain.State) Outcome {
	return Outcome{Reply: reply, Next: next, Persist: true}
}

func (e *Engine) showMenu(ctx context.Context, userID string, _ Input) (Outcome, error) {
	products, err := e.catalog.ListProducts(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("list products: %w", err)
	}
	return accepted(e.renderMenu(products), domain.StateMenuShown), nil
}

func (e *Engine) showCart(ctx context.Context, userID string, _ Input) (Outcome, error) {
	lines, err := e.cart.Items(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read cart: %w", err)
	}
	return accepted(e.renderCart(lines), domain.StateCartShown), nil
}

func (e *Engine) showProduct(ctx context.Context, userID string, in Input) (Outcome, error) {
	reply, found, err := e.productCard(ctx, in.ProductID)
	if err != nil {
		return Outcome{}, err
	}
	if !found {
		// Product ids are opaque; an id the catalog does not know is a stray callback.
		return ignored("unknown product " + in.ProductID), nil
	}
	return accepted(reply, domain.StateProductShown), nil
}

func (e *Engine) addToCart(ctx context.Context, userID string, in Input) (Outcome, error) {
	if err := e.cart.AddItem(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return Outcome{}, fmt.Errorf("add to cart: %w", err)
	}
	reply, found, err := e.productCard(ctx, in.ProductID)
	if err != nil {
		return Outcome{}, err
	}
	notice := phrases.Format(e.phrases.AddedNotice, "quantity", in.Quantity, "unit", e.phrases.Unit)
	if !found {
		return accepted(domain.Reply{Text: notice}, domain.StateProductShown), nil
	}
	reply.Text = notice + "\n\n" + reply.Text
	return accepted(reply, domain.StateProductShown), nil
}

func (e *Engine) removeFromCart(ctx context.Context, userID string, in Input) (Outcome, error) {
	err := e.cart.RemoveItem(ctx, userID, in.ProductID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Outcome{}, fmt.Errorf("remove from cart: %w", err)
	}
	return e.showCart(ctx, userID, in)
}

func (e *Engine) askEmail(_ context.Context, _ string, _ Input) (Outcome, error) {
	return accepted(e.renderEmailPrompt(), domain.StateWaitingEmail), nil
}

func (e *Engine) takeEmail(ctx context.Context, userID string, in Input) (Outcome, error) {
	email, ok := ParseEmail(in.Text)
	if !ok {
		return Outcome{Reply: domain.Reply{Text: e.phrases.EmailInvalid}}, nil
	}
	if err := e.customers.RecordEmail(ctx, userID, email); err != nil {
		return Outcome{}, fmt.Errorf("record email: %w", err)
	}
	return accepted(domain.Reply{Text: phrases.Format(e.phrases.EmailRecorded, "email", email)}, domain.StateEnd), nil
}

func (e *Engine) productCard(ctx context.Context, productID string) (domain.Reply, bool, error) {
	product, err := e.catalog.GetProduct(ctx, productID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Reply{}, false, nil
	}
	if err != nil {
		return domain.Reply{}, false, fmt.Errorf("get product: %w", err)
	}
	var imageURL string
	if product.ImageRef != "" {
		imageURL, err = e.catalog.GetImageURL(ctx, product.ImageRef)
		if err != nil {
			return domain.Reply{}, false, fmt.Errorf("get image url: %w", err)
		}
	}
	return e.renderProduct(product, imageURL), true, nil
}
