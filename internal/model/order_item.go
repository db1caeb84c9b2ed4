package model

// OrderItem 订单项，price / spu_total_amount 单位：分
type OrderItem struct {
	OrderItemID    int64  `gorm:"column:order_item_id;primaryKey;autoIncrement:false" json:"order_item_id"`
	ShopID         int64  `gorm:"column:shop_id;not null;index" json:"shop_id"`
	OrderID        int64  `gorm:"column:order_id;not null;index" json:"order_id"`
	CategoryID     int64  `gorm:"column:category_id;not null" json:"category_id"`
	SpuID          int64  `gorm:"column:spu_id;not null" json:"spu_id"`
	SkuID          int64  `gorm:"column:sku_id;not null" json:"sku_id"`
	UserID         int64  `gorm:"column:user_id;not null" json:"user_id"`
	Count          int    `gorm:"column:count;not null" json:"count"`
	SpuName        string `gorm:"column:spu_name;size:120" json:"spu_name"`
	SkuName        string `gorm:"column:sku_name;size:120" json:"sku_name"`
	Pic            string `gorm:"column:pic;size:255" json:"pic"`
	Price          int64  `gorm:"column:price;not null" json:"price"`
	SpuTotalAmount int64  `gorm:"column:spu_total_amount;not null" json:"spu_total_amount"`
}

func (OrderItem) TableName() string { return "order_item" }
