package cart

import "context"

// Store persists carts by token. Implementations expire idle carts; every
// successful Get or Save extends the lifetime.
type Store interface {
	// Get returns shared.ErrNotFound when the token is unknown or expired
	Get(ctx context.Context, token string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, token string) error
}
