package model

import "time"

// 商品。この系からは読み取り専用（編集は扱わない）。
type Product struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	CategoryID  string    `gorm:"type:uuid;index" json:"category_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	//価格（セント単位）
	Price     int64     `gorm:"not null" json:"price"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	Featured  bool      `gorm:"not null;default:false" json:"featured"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
