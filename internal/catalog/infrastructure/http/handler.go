package http

import (
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/storefront/internal/catalog/application"
	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/internal/identity"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/httpx"
)

const maxUploadMemory = 32 << 20

var (
	errProductsJSON = apperr.New(apperr.KindValidation, "products_not_array", "Products must be a valid JSON array")
	errMultipart    = apperr.New(apperr.KindValidation, "invalid_multipart", "Request must be multipart/form-data")
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log.With("component", "catalog-http"),
		service: service,
		tracer:  otel.Tracer("catalog-http"),
	}
}

// Routes exposes listing publicly; insert needs an admin token.
func (h *Handler) Routes(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/all", h.listProducts)
	r.With(auth, identity.RequireAdmin(h.log)).Post("/insert", h.insertProducts)
	return r
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	span.SetAttributes(attribute.Int("page", page), attribute.Int("limit", limit))

	products, err := h.service.ListProducts(ctx, page, limit)
	if err != nil {
		httpx.Error(w, h.log, "list products", err)
		return
	}
	if len(products) == 0 {
		httpx.OK(w, "No products found", []domain.Product{})
		return
	}
	httpx.OK(w, "All products retrieved successfully", products)
}

func (h *Handler) insertProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "InsertProducts")
	defer span.End()

	caller, err := identity.Require(ctx)
	if err != nil {
		httpx.Error(w, h.log, "insert products", err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		httpx.Error(w, h.log, "insert products", errMultipart)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	raw := r.FormValue("products")
	if raw == "" {
		httpx.Error(w, h.log, "insert products", application.ErrNoProducts)
		return
	}
	var inputs []domain.NewProductInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		httpx.Error(w, h.log, "insert products", errProductsJSON)
		return
	}

	images, closeAll, err := openImages(r.MultipartForm.File["images"])
	if err != nil {
		httpx.Error(w, h.log, "insert products", err)
		return
	}
	defer closeAll()

	products, err := h.service.InsertProducts(ctx, caller, inputs, images)
	if err != nil {
		httpx.Error(w, h.log, "insert products", err)
		return
	}
	httpx.OK(w, "Products inserted successfully", products)
}

func openImages(headers []*multipart.FileHeader) ([]*application.Image, func(), error) {
	files := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	images := make([]*application.Image, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperr.Wrap(apperr.KindValidation, "invalid_image", err)
		}
		files = append(files, f)
		images = append(images, &application.Image{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}
	return images, closeAll, nil
}
