package domain

import "context"

// Database is the lifecycle surface the store exposes to main: run the
// schema migrations on startup, close the handle on shutdown. The user
// repository hangs off the concrete store, not off this interface.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
