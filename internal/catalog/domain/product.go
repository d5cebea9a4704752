package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

var (
	ErrProductNameRequired = apperr.New(apperr.KindValidation, "product_name_required", "product name is required")
	ErrProductPrice        = apperr.New(apperr.KindValidation, "product_price_invalid", "product price must be positive")
	ErrProductPriceScale   = apperr.New(apperr.KindValidation, "product_price_scale", "product price must have at most 2 decimal places")
	ErrProductStock        = apperr.New(apperr.KindValidation, "product_stock_invalid", "product stock must not be negative")
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []string        `json:"images"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewProductInput is what catalog management submits for a new product.
type NewProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (in NewProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrProductNameRequired
	}
	if !in.Price.IsPositive() {
		return ErrProductPrice
	}
	// Prices are stored as NUMERIC(12,2); reject what would be rounded.
	if !in.Price.Equal(in.Price.Truncate(2)) {
		return ErrProductPriceScale
	}
	if in.Stock < 0 {
		return ErrProductStock
	}
	return nil
}

func NewProduct(id uuid.UUID, in NewProductInput, images []string, now time.Time) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}
	return Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Images:      images,
		CreatedAt:   now.UTC(),
	}, nil
}

// Media records an uploaded asset and who uploaded it.
type Media struct {
	ID         uuid.UUID `json:"id"`
	URL        string    `json:"url"`
	PublicID   string    `json:"publicId"`
	UploadedBy uuid.UUID `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}
