package model

import "time"

// 订单状态：1 待付款 2 待发货 3 待收货 5 成功 6 失败（4 保留，生成器照常产出）
const (
	StatusUnpaid    = 1
	StatusPaid      = 2
	StatusDelivered = 3
	StatusFinished  = 5
	StatusFailed    = 6
)

// Order 订单主表，一次写入后不再更新。
type Order struct {
	OrderID      int64      `gorm:"column:order_id;primaryKey;autoIncrement:false" json:"order_id"`
	ShopID       int64      `gorm:"column:shop_id;not null;index" json:"shop_id"`
	UserID       int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	DeliveryType int        `gorm:"column:delivery_type;not null" json:"delivery_type"`
	ShopName     string     `gorm:"column:shop_name;size:64" json:"shop_name"`
	Status       int        `gorm:"column:status;not null" json:"status"`
	AllCount     int        `gorm:"column:all_count;not null" json:"all_count"`
	CreateTime   time.Time  `gorm:"column:create_time;not null" json:"create_time"`
	PayTime      *time.Time `gorm:"column:pay_time" json:"pay_time"`
	DeliveryTime *time.Time `gorm:"column:delivery_time" json:"delivery_time"`
	FinallyTime  *time.Time `gorm:"column:finally_time" json:"finally_time"`
	IsPayed      bool       `gorm:"column:is_payed;not null" json:"is_payed"`
	Version      int        `gorm:"column:version;not null;default:1" json:"version"`
	OrderAddrID  int64      `gorm:"column:order_addr_id;not null" json:"order_addr_id"`
	Total        int64      `gorm:"column:total;not null" json:"total"` // 分
}

func (Order) TableName() string { return "order" }
