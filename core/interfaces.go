package core

import "context"

// Notifier is an interface to receive catalog change notifications.
//
// Notify is called after a successful write. Implementations must not block
// the caller for long, failures are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, resourceID string, payload []byte)
}
