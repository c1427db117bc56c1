// Package notify delivers run artifacts (statistics JSON, CSV reports) to
// external channels. Delivery failures are for the caller to log; they never
// affect the pipeline's own outcome.
package notify

import (
	"context"
	"errors"
)

// Notifier delivers one named artifact with an optional text message.
type Notifier interface {
	SendFile(ctx context.Context, filename string, payload []byte, message string) error
}

// NopNotifier drops every delivery.
type NopNotifier struct{}

func (NopNotifier) SendFile(ctx context.Context, filename string, payload []byte, message string) error {
	return nil
}

// MultiNotifier fans deliveries out to several channels. Every channel is
// attempted; the combined error reports all failures.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) SendFile(ctx context.Context, filename string, payload []byte, message string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.SendFile(ctx, filename, payload, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
