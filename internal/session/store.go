package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Update when the session does not exist.
var ErrNotFound = errors.New("session not found")

type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	// Update runs fn with exclusive access to the session value.
	Update(ctx context.Context, id string, fn func(T) error) error
	Delete(ctx context.Context, id string) error
	NewID() string
}
