package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type VariantRepository interface {
	FindByID(ctx context.Context, id string) (model.ProductVariant, error)
	ListByProductID(ctx context.Context, productID string) ([]model.ProductVariant, error)
}
