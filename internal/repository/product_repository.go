package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 商品の取得だけを約束（このサービスからは読み取り専用）。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)

	//カテゴリ内の公開商品（新しい順）
	ListActiveByCategoryID(ctx context.Context, categoryID string) ([]model.Product, error)

	//トップ表示用のおすすめ商品
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
}
