package adapters

import (
	"context"

	"billed/internal/core"
	"billed/internal/services"
)

// BillPublisher is the subset of the AMQP client used to announce bills.
type BillPublisher interface {
	PublishBillSubmitted(ctx context.Context, b core.Bill) error
}

// AMQPNotifier adapts a BillPublisher to services.Notifier.
type AMQPNotifier struct {
	publisher BillPublisher
}

var _ services.Notifier = (*AMQPNotifier)(nil)

func NewAMQPNotifier(p BillPublisher) *AMQPNotifier {
	return &AMQPNotifier{publisher: p}
}

// BillSubmitted implements services.Notifier. A nil publisher is a no-op so
// the web server runs without a broker.
func (n *AMQPNotifier) BillSubmitted(ctx context.Context, b core.Bill) error {
	if n == nil || n.publisher == nil {
		return nil
	}
	return n.publisher.PublishBillSubmitted(ctx, b)
}

// Notifiers fans a submission out to several notifiers and returns the first
// error after trying them all.
type Notifiers []services.Notifier

func (ns Notifiers) BillSubmitted(ctx context.Context, b core.Bill) error {
	var first error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.BillSubmitted(ctx, b); err != nil && first == nil {
			first = err
		}
	}
	return first
}
