package callerctx

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context reported a caller")
	}

	want := Caller{ID: FormatCallerID(-100123), Username: "gauss"}
	got, ok := FromContext(WithCaller(context.Background(), want))
	if !ok || got != want {
		t.Errorf("FromContext = %+v, %v; want %+v", got, ok, want)
	}
	if got.ID != "chat--100123" {
		t.Errorf("ID = %q", got.ID)
	}
}

func TestFromContextRejectsBadIDs(t *testing.T) {
	for _, id := range []string{"", "../other", "a/b", "chat 1", string(make([]byte, 65))} {
		if _, ok := FromContext(WithCaller(context.Background(), Caller{ID: id})); ok {
			t.Errorf("caller ID %q accepted", id)
		}
	}
}

func TestLabel(t *testing.T) {
	if got := (Caller{ID: "chat-1", Username: "euler"}).Label(); got != "@euler" {
		t.Errorf("Label = %q", got)
	}
	if got := (Caller{ID: "chat-1"}).Label(); got != "chat-1" {
		t.Errorf("Label without username = %q", got)
	}
}
