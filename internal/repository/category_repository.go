package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)

	//slugで1件取得（無ければErrNotFound）
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
}
