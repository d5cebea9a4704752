package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/httpx"
	"github.com/dmehra2102/storefront/pkg/idempotency"
)

const (
	maxWebhookBody  = 64 << 10
	signatureHeader = "Stripe-Signature"
	eventSource     = "stripe"
	// webhookLease bounds how long an in-flight delivery blocks redeliveries
	// of the same event.
	webhookLease = 2 * time.Minute
)

var errInvalidOrderID = apperr.New(apperr.KindValidation, "invalid_order_id", "orderId must be a valid id")

type Verifier interface {
	Verify(payload []byte, signature string) (domain.Event, error)
}

// Deduper short-circuits redelivered webhook events. Fulfillment itself is
// idempotent, so a missing deduper only costs a transaction per redelivery.
type Deduper interface {
	EventKey(source, eventID string) string
	Begin(ctx context.Context, key string, lease time.Duration) (idempotency.Claim, error)
	Complete(ctx context.Context, key string) error
	Forget(ctx context.Context, key string) error
}

type Handler struct {
	log      *slog.Logger
	service  *application.Service
	verifier Verifier
	dedupe   Deduper
	tracer   trace.Tracer
}

// NewHandler builds the payment routes. dedupe may be nil.
func NewHandler(log *slog.Logger, service *application.Service, verifier Verifier, dedupe Deduper) *Handler {
	return &Handler{
		log:      log.With("component", "payment-http"),
		service:  service,
		verifier: verifier,
		dedupe:   dedupe,
		tracer:   otel.Tracer("payment-http"),
	}
}

// Routes mounts the intent endpoint behind auth and the webhook without it;
// the webhook authenticates by signature.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.With(auth).Post("/create-payment-intent", h.createPaymentIntent)
	r.Post("/webhook", h.webhook)
	return r
}

type createIntentReq struct {
	OrderID string `json:"orderId"`
}

type createIntentResp struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ClientSecret string `json:"clientSecret"`
}

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreatePaymentIntent")
	defer span.End()

	caller, err := identity.Require(ctx)
	if err != nil {
		httpx.Error(w, h.log, "create payment intent", err)
		return
	}
	var req createIntentReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.log, "create payment intent", err)
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		httpx.Error(w, h.log, "create payment intent", errInvalidOrderID)
		return
	}
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	intent, err := h.service.CreateIntent(ctx, orderID, caller.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		httpx.Error(w, h.log, "create payment intent", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, createIntentResp{
		Success:      true,
		Message:      "Payment intent successfully created",
		ClientSecret: intent.ClientSecret,
	})
}

type webhookAck struct {
	Received bool   `json:"received"`
	Success  bool   `json:"success,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PaymentWebhook")
	defer span.End()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("webhook body unreadable", "err", err)
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	event, err := h.verifier.Verify(payload, r.Header.Get(signatureHeader))
	if err != nil {
		h.log.Warn("webhook signature rejected", "err", err)
		httpx.Fail(w, http.StatusBadRequest, "Invalid Stripe signature!")
		return
	}
	span.SetAttributes(attribute.String("event.id", event.ID), attribute.String("event.type", event.Type))

	if !event.Succeeded() {
		httpx.WriteJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	}
	if event.Reference == "" {
		h.log.Warn("webhook event without payment reference", "event_id", event.ID)
		httpx.Fail(w, http.StatusBadRequest, "Event has no payment reference")
		return
	}

	key, state := h.claim(ctx, event.ID)
	switch state {
	case idempotency.Done:
		h.log.Info("webhook event already handled", "event_id", event.ID)
		httpx.WriteJSON(w, http.StatusOK, webhookAck{Received: true, Success: true, Message: "Event already processed"})
		return
	case idempotency.InFlight:
		h.log.Info("webhook event in flight, asking for redelivery", "event_id", event.ID)
		httpx.Fail(w, http.StatusConflict, "Event is being processed, retry later")
		return
	}

	res, err := h.service.HandlePaymentSucceeded(ctx, event.Reference)
	// The outcome is recorded even when the caller has gone away.
	bg := context.WithoutCancel(ctx)
	if err != nil {
		if key != "" {
			if fErr := h.dedupe.Forget(bg, key); fErr != nil {
				h.log.Warn("webhook dedupe release failed", "event_id", event.ID, "err", fErr)
			}
		}
		span.SetStatus(codes.Error, err.Error())
		h.log.Error("webhook fulfillment failed", "event_id", event.ID, "payment_ref", event.Reference, "err", err)
		httpx.Fail(w, http.StatusInternalServerError, "Something went wrong!")
		return
	}
	if key != "" {
		if cErr := h.dedupe.Complete(bg, key); cErr != nil {
			h.log.Warn("webhook dedupe record failed", "event_id", event.ID, "err", cErr)
		}
	}

	httpx.WriteJSON(w, http.StatusOK, webhookAck{
		Received: true,
		Success:  true,
		Message:  fmt.Sprintf("Order %s paid and stock updated", res.OrderID),
	})
}

// claim marks the event as in-flight. An empty key means deduplication was
// skipped and the event is processed unconditionally.
func (h *Handler) claim(ctx context.Context, eventID string) (string, idempotency.Claim) {
	if h.dedupe == nil || eventID == "" {
		return "", idempotency.Claimed
	}
	key := h.dedupe.EventKey(eventSource, eventID)
	state, err := h.dedupe.Begin(ctx, key, webhookLease)
	if err != nil {
		h.log.Warn("webhook dedupe unavailable", "event_id", eventID, "err", err)
		return "", idempotency.Claimed
	}
	return key, state
}
