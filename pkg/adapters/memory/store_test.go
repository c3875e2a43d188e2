package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/storefront/pkg/adapters/memory"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	s := &domain.Session{UserID: "u1", State: domain.StateMenuShown}
	require.NoError(t, store.Save(ctx, "u1", s))
	s.State = domain.StateEnd

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMenuShown, loaded.State, "caller mutation must not leak into the store")

	loaded.State = domain.StateCartShown
	again, _ := store.Load(ctx, "u1")
	assert.Equal(t, domain.StateMenuShown, again.State)
}
