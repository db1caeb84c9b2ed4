package model

// OrderAddr 订单收货地址，和订单一一对应。
type OrderAddr struct {
	OrderAddrID int64   `gorm:"column:order_addr_id;primaryKey;autoIncrement:false" json:"order_addr_id"`
	UserID      int64   `gorm:"column:user_id;not null;index" json:"user_id"`
	Consignee   string  `gorm:"column:consignee;size:50" json:"consignee"`
	ProvinceID  int64   `gorm:"column:province_id" json:"province_id"`
	Province    string  `gorm:"column:province;size:100" json:"province"`
	CityID      int64   `gorm:"column:city_id" json:"city_id"`
	City        string  `gorm:"column:city;size:100" json:"city"`
	AreaID      int64   `gorm:"column:area_id" json:"area_id"`
	Area        string  `gorm:"column:area;size:100" json:"area"`
	Addr        string  `gorm:"column:addr;size:255" json:"addr"`
	PostCode    string  `gorm:"column:post_code;size:15" json:"post_code"`
	Mobile      string  `gorm:"column:mobile;size:20" json:"mobile"`
	Lng         float64 `gorm:"column:lng" json:"lng"`
	Lat         float64 `gorm:"column:lat" json:"lat"`
}

func (OrderAddr) TableName() string { return "order_addr" }
