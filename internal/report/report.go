package report

import (
	"context"

	"order_datagen/internal/model"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// StatusStat 各状态订单数和金额（分）
type StatusStat struct {
	Status int   `json:"status"`
	Orders int64 `json:"orders"`
	Amount int64 `json:"amount"`
}

// RegionStat 各省收货地址数
type RegionStat struct {
	ProvinceID int64  `json:"province_id"`
	Province   string `json:"province"`
	Orders     int64  `json:"orders"`
}

// ProductStat 按 SPU 汇总的销量
type ProductStat struct {
	SpuID    int64  `json:"spu_id"`
	SpuName  string `json:"spu_name"`
	Quantity int64  `json:"quantity"`
	Amount   int64  `json:"amount"`
}

// ShopStat 店铺销售额与订单数
type ShopStat struct {
	ShopID   int64  `json:"shop_id"`
	ShopName string `json:"shop_name"`
	Orders   int64  `json:"orders"`
	Amount   int64  `json:"amount"`
}

// Totals 三张表的行数
type Totals struct {
	Addrs  int64 `json:"addrs"`
	Orders int64 `json:"orders"`
	Items  int64 `json:"items"`
}

// Repository 生成结果的只读统计，直接聚合三张表。
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	db := r.db.WithContext(ctx)
	if err := db.Model(&model.OrderAddr{}).Count(&t.Addrs).Error; err != nil {
		return Totals{}, err
	}
	if err := db.Model(&model.Order{}).Count(&t.Orders).Error; err != nil {
		return Totals{}, err
	}
	if err := db.Model(&model.OrderItem{}).Count(&t.Items).Error; err != nil {
		return Totals{}, err
	}
	return t, nil
}

func (r *Repository) StatusStats(ctx context.Context) ([]StatusStat, error) {
	var out []StatusStat
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("status, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS amount").
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}

func (r *Repository) RegionStats(ctx context.Context) ([]RegionStat, error) {
	var out []RegionStat
	err := r.db.WithContext(ctx).Model(&model.OrderAddr{}).
		Select("province_id, province, COUNT(*) AS orders").
		Group("province_id, province").
		Order("orders DESC, province_id").
		Scan(&out).Error
	return out, err
}

func (r *Repository) ProductSales(ctx context.Context, limit int) ([]ProductStat, error) {
	var out []ProductStat
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Select("spu_id, spu_name, SUM(count) AS quantity, SUM(spu_total_amount) AS amount").
		Group("spu_id, spu_name").
		Order("amount DESC, spu_id").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	return out, err
}

// ShopSales 订单 total 已是订单项小计之和，直接聚合订单表，不用连表。
func (r *Repository) ShopSales(ctx context.Context, limit int) ([]ShopStat, error) {
	var out []ShopStat
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Select("shop_id, shop_name, COUNT(*) AS orders, SUM(total) AS amount").
		Group("shop_id, shop_name").
		Order("amount DESC, shop_id").
		Limit(clampLimit(limit)).
		Scan(&out).Error
	return out, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}
