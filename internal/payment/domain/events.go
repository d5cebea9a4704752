package domain

// EventPaymentSucceeded is the processor notification that triggers
// fulfillment.
const EventPaymentSucceeded = "payment_intent.succeeded"

// Event is a verified processor notification.
type Event struct {
	ID        string
	Type      string
	Reference string
}

func (e Event) Succeeded() bool { return e.Type == EventPaymentSucceeded }
