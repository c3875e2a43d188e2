/*
Package domain contains the core domain models of the storefront conversation engine.

It defines the fundamental entities of the per-user state machine, such as the
conversation States, the persisted Session, inbound Events and outbound Replies.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - State: The conversation step a user is in (menu, product card, cart, email prompt).
  - Session: The persisted per-user record (current State, last handled event).
  - Event: A normalized inbound interaction (command, button token or free text).
  - Reply: A transport-neutral description of what to show (text, image, buttons).
  - Token: The callback payload carried by buttons ("5|<product>", "del|<product>").
*/
package domain
