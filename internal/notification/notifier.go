// Package notification delivers desk alerts, chiefly newly rejected
// orders spotted by the monitor, to external channels.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"orderdesk/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them. Used when no
// channel is configured.
type LogNotifier struct{}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Fanout delivers one alert to every configured backend. A failing
// backend is logged and does not block the others.
type Fanout struct {
	backends []Notifier
}

// NewFanout builds a Fanout; with no backends it falls back to logging.
func NewFanout(backends ...Notifier) *Fanout {
	if len(backends) == 0 {
		backends = []Notifier{&LogNotifier{}}
	}
	return &Fanout{backends: backends}
}

func (f *Fanout) Send(ctx context.Context, alert Alert) error {
	for _, b := range f.backends {
		if err := b.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend error: %v", err)
		}
	}
	return nil
}

// RejectedOrdersAlert formats newly rejected orders into one alert.
func RejectedOrdersAlert(orders []model.OrderRecord) Alert {
	var b strings.Builder
	for _, o := range orders {
		fmt.Fprintf(&b, "%s %s %s x%d (%s)\n", o.Name, o.TransactionType, o.Symbol, o.Quantity, o.Status)
	}
	return Alert{
		Level:   AlertWarning,
		Title:   fmt.Sprintf("%d order(s) rejected", len(orders)),
		Message: strings.TrimRight(b.String(), "\n"),
	}
}
