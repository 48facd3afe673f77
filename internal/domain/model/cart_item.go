package model

import "time"

// カートの明細。(user_id, variant_id)で1行だけ持つ。
// 価格は持たない（表示・集計時に商品から読む）。
type CartItem struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_owner_variant" json:"user_id"`
	VariantID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cart_owner_variant" json:"variant_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	AddedAt   time.Time `gorm:"not null;autoCreateTime" json:"added_at"`
}
