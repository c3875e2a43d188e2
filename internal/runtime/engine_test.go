package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/internal/testutils"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(shop *testutils.Shop) *runtime.Engine {
	return runtime.NewEngine(shop, shop, shop, phrases.Default())
}

func step(t *testing.T, e *runtime.Engine, state domain.State, ev domain.Event) runtime.Outcome {
	t.Helper()
	in, err := runtime.Classify(ev)
	require.NoError(t, err)
	out, err := e.Step(context.Background(), "u1", state, in)
	require.NoError(t, err)
	return out
}

func TestEngine_TransitionTable(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.State
		event domain.Event
		next  domain.State
		calls []string
	}{
		{"start from nothing", domain.StateStart, domain.Command("start"), domain.StateMenuShown, []string{"ListProducts"}},
		{"start from end", domain.StateEnd, domain.Command("start"), domain.StateMenuShown, []string{"ListProducts"}},
		{"start mid-cart", domain.StateCartShown, domain.Command("start"), domain.StateMenuShown, []string{"ListProducts"}},
		{"menu to cart", domain.StateMenuShown, domain.Callback("cart"), domain.StateCartShown, []string{"Items"}},
		{"menu to product", domain.StateMenuShown, domain.Callback("p-salmon"), domain.StateProductShown, []string{"GetProduct", "GetImageURL"}},
		{"product without image", domain.StateMenuShown, domain.Callback("p-trout"), domain.StateProductShown, []string{"GetProduct"}},
		{"product back", domain.StateProductShown, domain.Callback("menu"), domain.StateMenuShown, []string{"ListProducts"}},
		{"product to cart", domain.StateProductShown, domain.Callback("cart"), domain.StateCartShown, []string{"Items"}},
		{"product add", domain.StateProductShown, domain.Callback("5|p-salmon"), domain.StateProductShown, []string{"AddItem", "GetProduct", "GetImageURL"}},
		{"cart to menu", domain.StateCartShown, domain.Callback("menu"), domain.StateMenuShown, []string{"ListProducts"}},
		{"cart checkout", domain.StateCartShown, domain.Callback("checkout"), domain.StateWaitingEmail, nil},
		{"cart remove", domain.StateCartShown, domain.Callback("del|p-salmon"), domain.StateCartShown, []string{"RemoveItem", "Items"}},
		{"email to menu", domain.StateWaitingEmail, domain.Callback("menu"), domain.StateMenuShown, []string{"ListProducts"}},
		{"email to cart", domain.StateWaitingEmail, domain.Callback("cart"), domain.StateCartShown, []string{"Items"}},
		{"email accepted", domain.StateWaitingEmail, domain.Text(" a@b.com "), domain.StateEnd, []string{"RecordEmail"}},
		{"cancel", domain.StateProductShown, domain.Command("cancel"), domain.StateEnd, nil},
		{"cancel after end", domain.StateEnd, domain.Command("cancel"), domain.StateEnd, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop := testutils.SampleShop()
			e := newEngine(shop)

			out := step(t, e, tt.from, tt.event)
			assert.True(t, out.Persist, "transition should be persisted")
			assert.Equal(t, tt.next, out.Next)
			assert.False(t, out.Reply.NoOp)
			assert.Equal(t, tt.calls, shop.Calls())
		})
	}
}

func TestEngine_Renders(t *testing.T) {
	shop := testutils.SampleShop()
	e := newEngine(shop)
	p := phrases.Default()

	t.Run("menu lists products and a cart button", func(t *testing.T) {
		out := step(t, e, domain.StateStart, domain.Command("start"))
		require.Len(t, out.Reply.Buttons, 3)
		assert.Equal(t, domain.Button{Label: "Salmon", Token: "p-salmon"}, out.Reply.Buttons[0][0])
		assert.Equal(t, domain.TokenCart, out.Reply.Buttons[2][0].Token)
	})

	t.Run("product card shows presets and image", func(t *testing.T) {
		out := step(t, e, domain.StateMenuShown, domain.Callback("p-salmon"))
		assert.Equal(t, "https://cdn.example.com/salmon.jpg", out.Reply.ImageURL)
		assert.Contains(t, out.Reply.Text, "Fresh Atlantic salmon")
		require.Len(t, out.Reply.Buttons, 2)
		var tokens []string
		for _, b := range out.Reply.Buttons[0] {
			tokens = append(tokens, b.Token)
		}
		assert.Equal(t, []string{"1|p-salmon", "5|p-salmon", "10|p-salmon"}, tokens)
		assert.Equal(t, "10 kg", out.Reply.Buttons[0][2].Label)
		assert.Equal(t, domain.TokenMenu, out.Reply.Buttons[1][1].Token)
	})

	t.Run("add prefixes a notice", func(t *testing.T) {
		out := step(t, e, domain.StateProductShown, domain.Callback("5|p-trout"))
		assert.Contains(t, out.Reply.Text, "Added 5 kg to your cart.")
	})

	t.Run("cart remove buttons come from the rendered snapshot", func(t *testing.T) {
		out := step(t, e, domain.StateProductShown, domain.Callback("cart"))
		require.Len(t, out.Reply.Buttons, 2)
		assert.Equal(t, "del|p-trout", out.Reply.Buttons[0][0].Token)
		assert.Equal(t, "Remove Trout from cart", out.Reply.Buttons[0][0].Label)
		assert.Equal(t, domain.TokenCheckout, out.Reply.Buttons[1][1].Token)
		assert.Contains(t, out.Reply.Text, "Cart total: 40.00 $")
	})

	t.Run("email prompt offers menu and cart", func(t *testing.T) {
		out := step(t, e, domain.StateCartShown, domain.Callback("checkout"))
		assert.Equal(t, p.EmailPrompt, out.Reply.Text)
		require.Len(t, out.Reply.Buttons, 1)
		assert.Len(t, out.Reply.Buttons[0], 2)
	})
}

func TestEngine_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		from  domain.State
		event domain.Event
	}{
		{"checkout from menu", domain.StateMenuShown, domain.Callback("checkout")},
		{"text in menu", domain.StateMenuShown, domain.Text("hello")},
		{"remove from product card", domain.StateProductShown, domain.Callback("del|p-salmon")},
		{"add from cart", domain.StateCartShown, domain.Callback("5|p-salmon")},
		{"product tap from cart", domain.StateCartShown, domain.Callback("p-salmon")},
		{"unknown command", domain.StateMenuShown, domain.Command("help")},
		{"text after end", domain.StateEnd, domain.Text("anyone?")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop := testutils.SampleShop()
			out := step(t, newEngine(shop), tt.from, tt.event)
			assert.False(t, out.Persist)
			assert.True(t, out.Reply.NoOp)
			assert.NotEmpty(t, out.Ignored)
			assert.Empty(t, shop.Calls(), "no collaborator should be called")
		})
	}
}

func TestEngine_NoConversation(t *testing.T) {
	p := phrases.Default()
	for _, ev := range []domain.Event{domain.Callback("cart"), domain.Text("hi"), domain.Command("cancel"), domain.Callback("5|p-salmon")} {
		shop := testutils.SampleShop()
		out := step(t, newEngine(shop), domain.StateStart, ev)
		assert.False(t, out.Persist)
		assert.Equal(t, p.SendStart, out.Reply.Text)
		assert.Empty(t, shop.Calls())
	}

	shop := testutils.SampleShop()
	out := step(t, newEngine(shop), domain.StateEnd, domain.Callback("menu"))
	assert.False(t, out.Persist)
	assert.Equal(t, p.SendStart, out.Reply.Text)
}

func TestEngine_InvalidEmail(t *testing.T) {
	shop := testutils.SampleShop()
	out := step(t, newEngine(shop), domain.StateWaitingEmail, domain.Text("no at sign"))
	assert.False(t, out.Persist)
	assert.Equal(t, phrases.Default().EmailInvalid, out.Reply.Text)
	assert.Empty(t, shop.Calls())
}

func TestEngine_RecordsTrimmedEmail(t *testing.T) {
	shop := testutils.SampleShop()
	step(t, newEngine(shop), domain.StateWaitingEmail, domain.Text("  fish@example.com\n"))
	assert.Equal(t, "fish@example.com", shop.Email("u1"))
}

func TestEngine_UnknownProductTapIsIgnored(t *testing.T) {
	for _, token := range []string{"p-gone", "garbage"} {
		t.Run(token, func(t *testing.T) {
			shop := testutils.SampleShop()
			out := step(t, newEngine(shop), domain.StateMenuShown, domain.Callback(token))
			assert.False(t, out.Persist)
			assert.True(t, out.Reply.NoOp)
			assert.Contains(t, out.Ignored, "unknown product")
			assert.Equal(t, []string{"GetProduct"}, shop.Calls())
		})
	}
}

func TestEngine_RemoveMissingLineStillRendersCart(t *testing.T) {
	shop := testutils.SampleShop()
	out := step(t, newEngine(shop), domain.StateCartShown, domain.Callback("del|p-salmon"))
	assert.True(t, out.Persist)
	assert.Equal(t, domain.StateCartShown, out.Next)
	assert.Equal(t, []string{"RemoveItem", "Items"}, shop.Calls())
}

func TestEngine_UpstreamFailure(t *testing.T) {
	shop := testutils.SampleShop()
	shop.Fail("Items", domain.ErrUpstream)
	e := newEngine(shop)

	in, err := runtime.Classify(domain.Callback("cart"))
	require.NoError(t, err)
	_, err = e.Step(context.Background(), "u1", domain.StateMenuShown, in)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}

func TestEngine_ReplayedAddWithDedupCart(t *testing.T) {
	shop := testutils.SampleShop().DedupAdds()
	e := newEngine(shop)

	first := step(t, e, domain.StateProductShown, domain.Callback("5|p-salmon"))
	second := step(t, e, first.Next, domain.Callback("5|p-salmon"))

	assert.Equal(t, domain.StateProductShown, second.Next)
	assert.Equal(t, 5, shop.Quantity("u1", "p-salmon"))
}

func TestAccepts(t *testing.T) {
	assert.True(t, runtime.Accepts(domain.StateEnd, runtime.IntentStart))
	assert.True(t, runtime.Accepts(domain.StateCartShown, runtime.IntentRemove))
	assert.False(t, runtime.Accepts(domain.StateMenuShown, runtime.IntentCheckout))
}
