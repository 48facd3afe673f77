package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 画像URLの配列をjsonbで保存する
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for StringList")
	}
}

// 商品バリアント（サイズ×色の購入単位。在庫はバリアント単位）
type ProductVariant struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID string `gorm:"type:uuid;not null;index" json:"product_id"`

	//sizeとcolorはnull許可（どちらか片方だけの商品もある）
	Size  *string `gorm:"type:varchar(50)" json:"size"`
	Color *string `gorm:"type:varchar(50)" json:"color"`

	StockQuantity int64      `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURLs     StringList `gorm:"type:jsonb" json:"image_urls"`
	CreatedAt     time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}
