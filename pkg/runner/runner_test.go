package runner_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/storefront"
	"github.com/aretw0/storefront/internal/testutils"
	"github.com/aretw0/storefront/pkg/adapters/memory"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*storefront.Engine, *testutils.Shop) {
	t.Helper()
	shop := testutils.SampleShop()
	eng, err := storefront.New(storefront.Services{Catalog: shop, Cart: shop, Customers: shop, Store: memory.NewStore()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng, shop
}

func TestRunner_TextSession(t *testing.T) {
	eng, shop := newEngine(t)
	in := strings.NewReader("1\n2\n4\n#checkout\na@b.com\n")
	var out bytes.Buffer

	r := runner.New(eng,
		runner.WithUserID("tty"),
		runner.WithStartCommand(true),
		runner.WithHandler(runner.NewTextHandler(in, &out)),
	)
	require.NoError(t, r.Run(context.Background()))

	// 1 = Salmon on the menu, 2 = "5 kg" on the card, 4 = the Cart button below the quantities.
	assert.Equal(t, 5, shop.Quantity("tty", "p-salmon"))
	assert.Equal(t, "a@b.com", shop.Email("tty"))

	text := out.String()
	assert.Contains(t, text, "Here is our fish:")
	assert.Contains(t, text, "[1] Salmon")
	assert.Contains(t, text, "(image: https://cdn.example.com/salmon.jpg)")
	assert.Contains(t, text, "Cart total: 62.50 $")
	assert.Contains(t, text, "Saved your email a@b.com")

	s, err := eng.Session(context.Background(), "tty")
	require.NoError(t, err)
	assert.Equal(t, domain.StateEnd, s.State)
}

func TestRunner_JSONSession(t *testing.T) {
	eng, _ := newEngine(t)
	in := strings.NewReader("\"/start\"\n#cart\n")
	var out bytes.Buffer

	r := runner.New(eng, runner.WithHandler(runner.NewJSONHandler(in, &out)))
	require.NoError(t, r.Run(context.Background()))

	dec := json.NewDecoder(&out)
	var menu, cart domain.Reply
	require.NoError(t, dec.Decode(&menu))
	require.NoError(t, dec.Decode(&cart))
	assert.Equal(t, "Here is our fish:", menu.Text)
	assert.Equal(t, domain.TokenCheckout, cart.Buttons[len(cart.Buttons)-1][1].Token)
}

func TestRunner_RejectsOversizedInput(t *testing.T) {
	t.Setenv(runner.EnvMaxInputSize, "16")
	eng, _ := newEngine(t)
	in := strings.NewReader("/start\n" + strings.Repeat("x", 64) + "\n/quit\n/start\n")
	var out bytes.Buffer

	r := runner.New(eng, runner.WithHandler(runner.NewTextHandler(in, &out)))
	require.NoError(t, r.Run(context.Background()))

	assert.Contains(t, out.String(), "! input exceeds maximum allowed size")
	assert.Equal(t, 1, strings.Count(out.String(), "Here is our fish:"), "input after /quit is not read")
}

func TestRunner_StopsOnCancel(t *testing.T) {
	eng, _ := newEngine(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := runner.New(eng, runner.WithHandler(runner.NewTextHandler(pr, &bytes.Buffer{})))
	assert.NoError(t, r.Run(ctx))
}

func TestParseLine(t *testing.T) {
	buttons := [][]domain.Button{
		{{Label: "1 kg", Token: "1|p"}, {Label: "5 kg", Token: "5|p"}},
		{{Label: "Cart", Token: "cart"}},
	}
	tests := []struct {
		line string
		want domain.Event
	}{
		{"/start", domain.Command("start")},
		{"2", domain.Callback("5|p")},
		{"3", domain.Callback("cart")},
		{"4", domain.Text("4")},
		{"#del|p", domain.Callback("del|p")},
		{" a@b.com ", domain.Text("a@b.com")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runner.ParseLine(tt.line, buttons), tt.line)
	}
}
