/*
Package storefront is a conversational storefront engine: a small per-user
state machine that walks a chat user through a product menu, product cards,
a shopping cart and checkout by email.

The engine is transport-neutral. Transports (Telegram, HTTP, MCP, the console)
normalize their input into a domain.Event and render the returned domain.Reply.
Catalog, cart and customer operations are delegated to injected ports, and the
per-user state is kept in a ports.StateStore.

# Guarantees

  - Events of the same user are applied one at a time, in arrival order.
  - A transition is persisted before its reply is returned.
  - If the state cannot be persisted the user is asked to retry and the
    previous state is kept.
  - Redelivered events (same Event.ID as the last persisted one) are no-ops.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/storefront"
		"github.com/aretw0/storefront/internal/testutils"
		"github.com/aretw0/storefront/pkg/adapters/memory"
		"github.com/aretw0/storefront/pkg/domain"
	)

	func main() {
		shop := testutils.SampleShop()
		eng, err := storefront.New(storefront.Services{
			Catalog:   shop,
			Cart:      shop,
			Customers: shop,
			Store:     memory.NewStore(),
		})
		if err != nil {
			panic(err)
		}
		defer eng.Close()

		reply, _ := eng.HandleEvent(context.Background(), "42", domain.Command("/start"))
		fmt.Println(reply.Text)
	}
*/
package storefront
