package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/internal/testutils"
	"github.com/aretw0/storefront/pkg/domain"
)

// Every declared edge must be what Step actually does.
func TestEdges_MatchStep(t *testing.T) {
	shop := testutils.SampleShop()
	engine := runtime.NewEngine(shop, shop, shop, phrases.Default())
	ctx := context.Background()

	inputs := map[runtime.Intent]runtime.Input{
		runtime.IntentStart:    {Intent: runtime.IntentStart},
		runtime.IntentCancel:   {Intent: runtime.IntentCancel},
		runtime.IntentMenu:     {Intent: runtime.IntentMenu},
		runtime.IntentCart:     {Intent: runtime.IntentCart},
		runtime.IntentCheckout: {Intent: runtime.IntentCheckout},
		runtime.IntentProduct:  {Intent: runtime.IntentProduct, ProductID: "p-salmon"},
		runtime.IntentAdd:      {Intent: runtime.IntentAdd, ProductID: "p-salmon", Quantity: 1},
		runtime.IntentRemove:   {Intent: runtime.IntentRemove, ProductID: "p-salmon"},
		runtime.IntentText:     {Intent: runtime.IntentText, Text: "buyer@example.com"},
	}

	edges := runtime.Edges()
	require.NotEmpty(t, edges)
	for _, e := range edges {
		in, ok := inputs[e.Intent]
		require.True(t, ok, "no input for %s", e.Intent)

		out, err := engine.Step(ctx, "graph", e.From, in)
		require.NoError(t, err, "%s --%s-->", e.From, e.Intent)
		assert.True(t, out.Persist, "%s --%s--> should persist", e.From, e.Intent)
		assert.Equal(t, e.To, out.Next, "%s --%s-->", e.From, e.Intent)
	}
}

func TestEdges_Coverage(t *testing.T) {
	from := map[domain.State]int{}
	for _, e := range runtime.Edges() {
		from[e.From]++
		assert.True(t, runtime.Accepts(e.From, e.Intent) || e.Intent == runtime.IntentCancel, "%s %s", e.From, e.Intent)
	}

	assert.Equal(t, 1, from[domain.StateStart], "only /start leaves start")
	assert.Equal(t, 1, from[domain.StateEnd], "only /start leaves end")
	assert.Equal(t, 5, from[domain.StateMenuShown])
	assert.Equal(t, 5, from[domain.StateProductShown])
	assert.Equal(t, 6, from[domain.StateCartShown])
	assert.Equal(t, 5, from[domain.StateWaitingEmail])
}
