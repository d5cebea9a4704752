package domain

import (
	inventory "github.com/dmehra2102/storefront/internal/inventory/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

var (
	ErrQuantityNotPositive = apperr.New(apperr.KindValidation, "quantity_not_positive", "quantity must be a positive number")
	ErrProductIDRequired   = apperr.New(apperr.KindValidation, "product_id_required", "productId and quantity must be filled")
	ErrProductNotFound     = apperr.New(apperr.KindNotFound, "product_not_found", "Product not found")
	ErrStaleProduct        = apperr.New(apperr.KindValidation, "stale_product", "cart references a product that no longer exists")
	ErrEmptyCart           = apperr.New(apperr.KindValidation, "empty_cart", "Cart empty")
	ErrProductGone         = apperr.New(apperr.KindNotFound, "product_gone", "product in cart no longer exists")
	ErrInvalidAddress      = apperr.New(apperr.KindValidation, "invalid_address", "delivery address requires street, city, state and zipCode")
	ErrOrderNotFound       = apperr.New(apperr.KindNotFound, "order_not_found", "Order not found")
	ErrAlreadyProcessed    = apperr.New(apperr.KindAlreadyProcessed, "already_processed", "This order has been paid or failed")
	ErrInvalidAmount       = apperr.New(apperr.KindValidation, "invalid_amount", "Invalid total amount in the order")
	ErrReferenceConflict   = apperr.New(apperr.KindAlreadyProcessed, "payment_reference_conflict", "order already has a different payment reference")

	// Stock errors are owned by the inventory ledger.
	ErrInsufficientStock = inventory.ErrInsufficientStock
	ErrProductMissing    = inventory.ErrProductMissing
)
