package runtime

import (
	"testing"

	"github.com/aretw0/storefront/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		ev      domain.Event
		want    Input
		wantErr bool
	}{
		{name: "start", ev: domain.Command("/start"), want: Input{Intent: IntentStart}},
		{name: "cancel", ev: domain.Command("cancel"), want: Input{Intent: IntentCancel}},
		{name: "unknown command", ev: domain.Command("help"), want: Input{Intent: IntentUnknown}},
		{name: "menu", ev: domain.Callback("menu"), want: Input{Intent: IntentMenu}},
		{name: "cart", ev: domain.Callback("cart"), want: Input{Intent: IntentCart}},
		{name: "checkout", ev: domain.Callback("checkout"), want: Input{Intent: IntentCheckout}},
		{name: "product", ev: domain.Callback("p-1"), want: Input{Intent: IntentProduct, ProductID: "p-1"}},
		{name: "add", ev: domain.Callback("5|p-1"), want: Input{Intent: IntentAdd, ProductID: "p-1", Quantity: 5}},
		{name: "remove", ev: domain.Callback("del|p-1"), want: Input{Intent: IntentRemove, ProductID: "p-1"}},
		{name: "text", ev: domain.Text("a@b.c"), want: Input{Intent: IntentText, Text: "a@b.c"}},
		{name: "malformed", ev: domain.Callback("x|"), wantErr: true},
		{name: "empty token", ev: domain.Callback(""), wantErr: true},
		{name: "unknown kind", ev: domain.Event{Kind: "sticker"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.ev)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedEvent)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEmail(t *testing.T) {
	email, ok := ParseEmail("  user@example.com \n")
	assert.True(t, ok)
	assert.Equal(t, "user@example.com", email)

	_, ok = ParseEmail("not an email")
	assert.False(t, ok)
}
