// Package notifier delivers alert text to an operator channel.
package notifier

// Notifier is the interface for all notification channel types. Delivery
// failure is reported to the caller, who decides whether it matters; for
// alerting runs it is logged and ignored.
type Notifier interface {
	Send(text string) error
	Name() string
}
