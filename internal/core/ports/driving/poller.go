package driving

import "context"

// Poller drives the scheduled loop: liveness check, initial scan,
// incremental polls and change application.
type Poller interface {
	// Start runs the polling loop. Blocks until the context is
	// cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cooperatively stops the loop between steps and waits for
	// the in-flight step to finish.
	Stop() error
}
