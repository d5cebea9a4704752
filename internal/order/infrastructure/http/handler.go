package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/internal/order/application"
	"github.com/dmehra2102/storefront/internal/order/domain"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log.With("component", "order-http"),
		service: service,
		tracer:  otel.Tracer("order-http"),
	}
}

type addToCartReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type checkoutReq struct {
	DeliveryAddress domain.DeliveryAddress `json:"deliveryAddress"`
}

// Routes requires an authenticated caller on every endpoint.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(auth)
	r.Post("/cart", h.addToCart)
	r.Post("/checkout", h.checkout)
	r.Get("/history", h.history)
	return r
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddToCart")
	defer span.End()

	caller, err := identity.Require(ctx)
	if err != nil {
		httpx.Error(w, h.log, "add to cart", err)
		return
	}
	var req addToCartReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.log, "add to cart", err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		httpx.Error(w, h.log, "add to cart", domain.ErrProductIDRequired)
		return
	}
	span.SetAttributes(attribute.String("product.id", productID.String()), attribute.Int("quantity", req.Quantity))

	cart, err := h.service.AddItem(ctx, caller.UserID, productID, req.Quantity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		httpx.Error(w, h.log, "add to cart", err)
		return
	}
	httpx.OK(w, "Product successfully added to cart", cart)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Checkout")
	defer span.End()

	caller, err := identity.Require(ctx)
	if err != nil {
		httpx.Error(w, h.log, "checkout", err)
		return
	}
	var req checkoutReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, h.log, "checkout", err)
		return
	}

	o, err := h.service.Checkout(ctx, caller.UserID, req.DeliveryAddress)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		httpx.Error(w, h.log, "checkout", err)
		return
	}
	span.SetAttributes(attribute.String("order.id", o.ID.String()))
	httpx.OK(w, "Order successfully created, proceed to payment", o)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "OrderHistory")
	defer span.End()

	caller, err := identity.Require(ctx)
	if err != nil {
		httpx.Error(w, h.log, "order history", err)
		return
	}
	orders, err := h.service.History(ctx, caller.UserID)
	if err != nil {
		httpx.Error(w, h.log, "order history", err)
		return
	}
	if len(orders) == 0 {
		httpx.OK(w, "No orders found", []domain.Order{})
		return
	}
	httpx.OK(w, "Order history retrieved successfully", orders)
}
