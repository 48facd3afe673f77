package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// プロフィールの保存・取得（idはusers.idと同じ）
type ProfileRepository interface {
	Create(ctx context.Context, profile model.Profile) error
	FindByUserID(ctx context.Context, userID string) (model.Profile, error)
	Update(ctx context.Context, profile model.Profile) error
}
