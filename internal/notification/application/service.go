package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	order "github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

type Message struct {
	UserID  uuid.UUID
	Subject string
	Body    string
}

// Mailer delivers customer notifications.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("notification", "user_id", msg.UserID, "subject", msg.Subject, "body", msg.Body)
	return nil
}

type Service struct {
	log    *slog.Logger
	mailer Mailer
}

func NewService(log *slog.Logger, mailer Mailer) *Service {
	return &Service{log: log.With("component", "notification"), mailer: mailer}
}

// Handle turns an order event into a customer message. Unknown event types
// are ignored.
func (s *Service) Handle(ctx context.Context, eventType string, payload []byte) error {
	var msg Message
	switch eventType {
	case order.EventOrderCreated:
		var e order.OrderCreated
		if err := json.Unmarshal(payload, &e); err != nil {
			return apperr.Wrap(apperr.KindValidation, "invalid_event", err)
		}
		msg = Message{
			UserID:  e.UserID,
			Subject: "We received your order",
			Body:    fmt.Sprintf("Order %s for %s is awaiting payment.", e.OrderID, e.TotalAmount.StringFixed(2)),
		}
	case order.EventOrderPaid:
		var e order.OrderPaid
		if err := json.Unmarshal(payload, &e); err != nil {
			return apperr.Wrap(apperr.KindValidation, "invalid_event", err)
		}
		msg = Message{
			UserID:  e.UserID,
			Subject: "Payment confirmed",
			Body:    fmt.Sprintf("Order %s is paid (%s) and being prepared.", e.OrderID, e.TotalAmount.StringFixed(2)),
		}
	default:
		s.log.Debug("event ignored", "type", eventType)
		return nil
	}
	return s.mailer.Send(ctx, msg)
}
