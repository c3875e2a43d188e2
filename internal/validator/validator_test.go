package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storefront/internal/runtime"
	"github.com/aretw0/storefront/internal/validator"
	"github.com/aretw0/storefront/pkg/domain"
)

func TestValidateGraph_ConversationTable(t *testing.T) {
	err := validator.ValidateGraph(runtime.Edges(), runtime.States, domain.StateStart, domain.StateEnd)
	require.NoError(t, err)
}

func TestValidateGraph_Errors(t *testing.T) {
	states := []domain.State{domain.StateStart, domain.StateMenuShown, domain.StateCartShown, domain.StateEnd}

	t.Run("Unreachable", func(t *testing.T) {
		edges := []runtime.Edge{
			{From: domain.StateStart, Intent: runtime.IntentStart, To: domain.StateMenuShown},
			{From: domain.StateMenuShown, Intent: runtime.IntentCancel, To: domain.StateEnd},
			{From: domain.StateCartShown, Intent: runtime.IntentCancel, To: domain.StateEnd},
		}
		err := validator.ValidateGraph(edges, states, domain.StateStart, domain.StateEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unreachable state: 'cart_shown'")
	})

	t.Run("Dead End", func(t *testing.T) {
		edges := []runtime.Edge{
			{From: domain.StateStart, Intent: runtime.IntentStart, To: domain.StateMenuShown},
			{From: domain.StateMenuShown, Intent: runtime.IntentCart, To: domain.StateCartShown},
			{From: domain.StateMenuShown, Intent: runtime.IntentCancel, To: domain.StateEnd},
		}
		err := validator.ValidateGraph(edges, states, domain.StateStart, domain.StateEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "State never reaches 'end': 'cart_shown'")
	})

	t.Run("Unknown Target", func(t *testing.T) {
		edges := []runtime.Edge{
			{From: domain.StateStart, Intent: runtime.IntentStart, To: "limbo"},
		}
		err := validator.ValidateGraph(edges, states, domain.StateStart, domain.StateEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown target state: 'limbo'")
	})
}
