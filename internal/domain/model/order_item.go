package model

import "time"

// 注文明細。購入時点の単価をコピーして保存する
// （後から商品価格が変わっても過去の注文は変わらない）。
type OrderItem struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   string `gorm:"type:uuid;not null;index" json:"order_id"`
	VariantID string `gorm:"type:uuid;not null;index" json:"variant_id"`
	Quantity  int64  `gorm:"not null" json:"quantity"`

	//購入時点の単価（セント）
	PriceAtPurchase int64     `gorm:"not null" json:"price_at_purchase"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
