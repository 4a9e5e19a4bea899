package notification

import (
	"context"
	"encoding/json"
	"time"
)

// API is one user's authenticated view of the notifications service.
type API interface {
	// ListNotifications returns the participating notifications, bounded below
	// by since unless it is the zero time.
	ListNotifications(ctx context.Context, since time.Time) ([]Notification, error)
	// Resolve fetches an arbitrary resource URL and returns its raw JSON body.
	Resolve(ctx context.Context, url string) (json.RawMessage, error)
}

// APIFactory builds an API authenticated with token.
type APIFactory func(token string) API

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}
