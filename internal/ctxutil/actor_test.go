package ctxutil

import (
	"context"
	"testing"
)

func TestActorOrSystem(t *testing.T) {
	if got := ActorOrSystem(context.Background()); got != SystemActor {
		t.Errorf("ActorOrSystem(empty) = %q, want %q", got, SystemActor)
	}

	ctx := WithActorID(context.Background(), "alice")
	if got := ActorOrSystem(ctx); got != "alice" {
		t.Errorf("ActorOrSystem = %q, want %q", got, "alice")
	}
	if IsSystemActor("alice") || !IsSystemActor(SystemActor) {
		t.Error("IsSystemActor misclassified an actor")
	}
}
