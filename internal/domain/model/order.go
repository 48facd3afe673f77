package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 注文時点の配送先スナップショット。
// 住所マスタへの参照ではなくコピーを持つ（後から住所を直しても過去の注文は変わらない）。
type ShippingSnapshot struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

func (s ShippingSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ShippingSnapshot) Scan(src interface{}) error {
	if src == nil {
		*s = ShippingSnapshot{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for ShippingSnapshot")
	}
}

type Order struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`

	//合計金額（作成時に確定。以後変更しない）
	TotalAmount int64 `gorm:"not null" json:"total_amount"`

	ShippingAddress ShippingSnapshot `gorm:"type:jsonb;not null" json:"shipping_address"`

	//pending以降の進行はpayment（processing）まで。shipped以降は外部の出荷処理が進める。
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
