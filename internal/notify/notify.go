// Package notify fans out operational notices (new feedback, sweep results)
// to chat platforms.
package notify

import (
	"context"
	"errors"
)

// Notice is one event to announce.
type Notice struct {
	Title string
	Body  string
}

// Notifier is the interface platform-specific adapters must satisfy.
type Notifier interface {
	// Send delivers a notice to the platform.
	Send(ctx context.Context, n Notice) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Multi fans a notice out to several notifiers. Send attempts every adapter
// and joins the failures.
type Multi []Notifier

// Send implements Notifier.
func (m Multi) Send(ctx context.Context, n Notice) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Notifier.
func (m Multi) Close() error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
