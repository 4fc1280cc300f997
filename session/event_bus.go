package session

import (
	"context"

	multierror "github.com/hashicorp/go-multierror"
)

// EventHandler observes one dispatched domain event.
type EventHandler func(ctx context.Context, payload any) error

type pendingEvent struct {
	name    string
	payload any
}

// EventBus is an in-process, synchronous, FIFO pub/sub keyed by event name
// (spec §4.F step 6). Events raised during a flush are queued and
// dispatched only once the flush has committed successfully.
type EventBus struct {
	handlers map[string][]EventHandler
	pending  []pendingEvent
}

func newEventBus() *EventBus {
	return &EventBus{handlers: map[string][]EventHandler{}}
}

// On registers handler for every event emitted under name, running in
// registration order relative to other handlers for the same name.
func (b *EventBus) On(name string, handler EventHandler) {
	b.handlers[name] = append(b.handlers[name], handler)
}

// Emit queues an event for dispatch at the end of the current flush round.
// It does not invoke handlers synchronously.
func (b *EventBus) Emit(name string, payload any) {
	b.pending = append(b.pending, pendingEvent{name: name, payload: payload})
}

// dispatch runs every queued event's handlers in FIFO order, collecting
// every handler failure via go-multierror rather than aborting on the
// first one — events fire only after a successful commit, so a handler
// failure cannot roll anything back; the caller only needs to know about
// every failure, not just the first.
func (b *EventBus) dispatch(ctx context.Context) error {
	queued := b.pending
	b.pending = nil

	var result *multierror.Error
	for _, evt := range queued {
		for _, handler := range b.handlers[evt.name] {
			if err := handler(ctx, evt.payload); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	if result == nil {
		return nil
	}
	return result.ErrorOrNil()
}
