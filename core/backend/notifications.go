package backend

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// notification is a single catalog change as handed to the notifier
type notification struct {
	Resource   string
	Operation  core.Operation
	ResourceID string
	Payload    []byte
}

func callWithPanicEnvelope(ctx context.Context, callback func(context.Context, notification), n notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %s", r)
		}
	}()
	callback(ctx, n)
	return
}

// notify tells the notifier about a successful write. A failing notifier never
// fails the request.
func (b *Backend) notify(ctx context.Context, resource string, operation core.Operation, resourceID string, object interface{}) {
	if b.notifier == nil {
		return
	}
	rlog := logger.FromContext(ctx)
	payload, err := json.Marshal(object)
	if err != nil {
		rlog.WithError(err).Errorf("Error 4901: cannot marshal %s notification", resource)
		return
	}
	n := notification{
		Resource:   resource,
		Operation:  operation,
		ResourceID: resourceID,
		Payload:    payload,
	}
	err = callWithPanicEnvelope(ctx, func(ctx context.Context, n notification) {
		b.notifier.Notify(ctx, n.Resource, n.Operation, n.ResourceID, n.Payload)
	}, n)
	if err != nil {
		rlog.WithError(err).Errorf("Error 4902: notifier failed for %s %s %s", operation, resource, resourceID)
	}
}
