// Package daemon runs the server until the operating system asks it to stop.
package daemon

import (
	"context"
	"os/signal"
)

// StopContext returns a context which is cancelled when one of StopSignals
// is received. Calling stop releases the signal handlers.
func StopContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, StopSignals...)
}
