package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]model.CartItem, error)

	// (user_id, variant_id)でupsertする。既存行がある場合、数量は
	// 「加算」ではなく渡した値で「置き換え」る。upsertのconflict句の仕様。
	UpsertReplaceQuantity(ctx context.Context, id string, userID string, variantID string, quantity int64) error

	UpdateQuantity(ctx context.Context, cartItemID string, qty int64) error

	//冪等。無いIDを消してもエラーにしない。
	DeleteByID(ctx context.Context, cartItemID string) error

	//そのユーザーの明細を全削除
	DeleteAllByUserID(ctx context.Context, userID string) error

	FindByID(ctx context.Context, cartItemID string) (model.CartItem, error)
	IsOwnedByUser(ctx context.Context, cartItemID string, userID string) (bool, error)
}
