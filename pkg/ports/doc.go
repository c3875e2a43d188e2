/*
Package ports defines the driven ports (interfaces) of the storefront engine.

These interfaces decouple the conversation core from external implementations,
allowing the engine to work with various catalog services, storage backends and
transports.

# Key Interfaces

  - Catalog, Cart, Customers: Remote commerce collaborators (e.g. Moltin).
  - StateStore: Responsible for persisting and loading the per-user Session.
  - DistributedLocker: Serializes per-user work across multiple replicas.
  - EventHandler: What transports (Telegram, HTTP, MCP, console) drive.
*/
package ports
