// Package callerctx carries the identity of whoever asked for a prime.
// Caller IDs end up in storage keys (callers/<id>/...), so only IDs that
// pass ValidID are ever returned from a context.
package callerctx

import (
	"context"
	"fmt"
	"regexp"
)

// Caller identifies one requester.
type Caller struct {
	ID       string // stable key, e.g. chat-123
	Username string // display only; may be empty
}

// Label is the name to show in replies and logs.
func (c Caller) Label() string {
	if c.Username != "" {
		return "@" + c.Username
	}
	return c.ID
}

type callerKey struct{}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether id is safe to use as a storage key segment.
func ValidID(id string) bool {
	return validID.MatchString(id)
}

// WithCaller attaches the caller to the context.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// FromContext returns the caller from context. ok is false when no caller
// is set or its ID is not a valid key.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	if !ok || !ValidID(c.ID) {
		return Caller{}, false
	}
	return c, true
}

// FormatCallerID converts a Telegram chat ID to a stable caller ID string.
func FormatCallerID(chatID int64) string {
	return fmt.Sprintf("chat-%d", chatID)
}
