// Package notify delivers operator alerts about report exports to chat
// channels. Every alert goes to all configured senders; an event filter lets
// operators mute the kinds they do not care about.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Event classifies an alert.
type Event string

const (
	EventReportExported Event = "report_exported"
	EventReportFailed   Event = "report_failed"
	EventSourceDegraded Event = "source_degraded"
)

// Alert is one notification.
type Alert struct {
	Event Event
	Title string
	Lines []string // rendered one per line under the title
}

// Body joins the alert lines.
func (a Alert) Body() string {
	return strings.Join(a.Lines, "\n")
}

// Sender is one delivery channel.
type Sender interface {
	Send(ctx context.Context, title, body string) error
	Name() string
}

// Notifier fans alerts out to its senders. A nil *Notifier drops every
// alert.
type Notifier struct {
	senders []Sender
	muted   func(Event) bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. When events is non-empty only those events
// are delivered.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[Event]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[Event(e)] = true
		}
	}
	return &Notifier{
		senders: senders,
		muted: func(e Event) bool {
			return len(allowed) > 0 && !allowed[e]
		},
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && len(n.senders) > 0
}

// Notify delivers a to every sender. A failing sender does not stop delivery
// to the others; all failures are returned joined.
func (n *Notifier) Notify(ctx context.Context, a Alert) error {
	if !n.Enabled() {
		return nil
	}
	if n.muted(a.Event) {
		n.logger.DebugContext(ctx, "alert muted", slog.String("event", string(a.Event)))
		return nil
	}

	body := a.Body()
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, a.Title, body); err != nil {
			n.logger.WarnContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("event", string(a.Event)),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}
