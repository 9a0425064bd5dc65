package service

import "context"

// ChangeListener receives notifications after a mutation has been
// persisted. The watch hub implements it to fan updated snapshots out
// to subscribers.
type ChangeListener interface {
	ShareGraphChanged(ctx context.Context, owner string)
	LocationChanged(ctx context.Context, owner string)
}

// NopListener discards all notifications. Used where no hub is wired,
// e.g. the CLI and most tests.
type NopListener struct{}

var _ ChangeListener = NopListener{}

func (NopListener) ShareGraphChanged(context.Context, string) {}
func (NopListener) LocationChanged(context.Context, string)   {}
