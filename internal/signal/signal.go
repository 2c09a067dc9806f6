package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context derived from parent that is cancelled when
// SIGINT or SIGTERM is received. The returned stop function should be called
// to release resources.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Interrupted reports whether ctx ended because of a signal or a cancelled
// parent.
func Interrupted(ctx context.Context) bool {
	return ctx.Err() != nil
}
