package synth

import (
	"fmt"
	"math/rand/v2"
	"time"

	"order_datagen/internal/idgen"
	"order_datagen/internal/model"
	"order_datagen/internal/refdata"
)

const (
	DefaultMaxUserID = 100_000

	maxCreateAgeDays  = 90
	maxPayDelayMin    = 60
	maxDeliveryDelayH = 48
	maxFinishDelayD   = 7
	maxItemCount      = 3
	skuVariants       = 5
)

// Synthesizer 生成地址、订单、订单项。除 ID 分配外没有副作用；
// 持有自己的随机源，每个 worker 一个实例，不可并发使用。
type Synthesizer struct {
	rng       *rand.Rand
	regions   *refdata.RegionTree
	catalog   *refdata.Catalog
	ids       *idgen.Allocator
	now       func() time.Time
	maxUserID int64
}

type Option func(*Synthesizer)

// WithClock 替换当前时间来源，测试用
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

func WithMaxUserID(n int64) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.maxUserID = n
		}
	}
}

func New(rng *rand.Rand, store *refdata.Store, ids *idgen.Allocator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		rng:       rng,
		regions:   store.Regions,
		catalog:   store.Catalog,
		ids:       ids,
		now:       time.Now,
		maxUserID: DefaultMaxUserID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID 随机买家，不走分配器；重复即同一买家多次下单。
func (s *Synthesizer) UserID() int64 {
	return between(s.rng, 1, s.maxUserID)
}

// Address 生成一条收货地址。区划解析失败时省市区全部随机编造。
func (s *Synthesizer) Address(userID int64) model.OrderAddr {
	addr := model.OrderAddr{
		OrderAddrID: s.ids.NextAddressID(),
		UserID:      userID,
		Consignee:   fakeName(s.rng),
	}

	if region, ok := s.regions.Pick(s.rng); ok {
		addr.ProvinceID, addr.Province = region.ProvinceID, region.ProvinceName
		addr.CityID, addr.City = region.CityID, region.CityName
		addr.AreaID, addr.Area = region.AreaID, region.AreaName
	} else {
		addr.ProvinceID, addr.Province = between(s.rng, 1, 34), pick(s.rng, fallbackProvinces)
		addr.CityID, addr.City = between(s.rng, 1, 400), pick(s.rng, fallbackCities)
		addr.AreaID, addr.Area = between(s.rng, 1, 3000), pick(s.rng, fallbackDistricts)
	}

	addr.Addr = fakeStreetAddress(s.rng)
	addr.PostCode = fakePostCode(s.rng)
	addr.Mobile = fakeMobile(s.rng)
	addr.Lng = fakeCoordinate(s.rng, 180)
	addr.Lat = fakeCoordinate(s.rng, 90)
	return addr
}

// Order 为给定地址生成订单及 1~3 个订单项。total 在订单项生成之后汇总。
func (s *Synthesizer) Order(addr model.OrderAddr) (model.Order, []model.OrderItem, error) {
	now := s.now().Truncate(time.Second)
	status := 1 + s.rng.IntN(6)

	order := model.Order{
		UserID:       addr.UserID,
		DeliveryType: 1 + s.rng.IntN(3),
		Status:       status,
		IsPayed:      status >= model.StatusPaid,
		Version:      1,
		OrderAddrID:  addr.OrderAddrID,
	}
	order.CreateTime = now.AddDate(0, 0, -int(between(s.rng, 1, maxCreateAgeDays)))
	if status >= model.StatusPaid {
		t := order.CreateTime.Add(time.Duration(between(s.rng, 1, maxPayDelayMin)) * time.Minute)
		order.PayTime = &t
	}
	if status >= model.StatusDelivered {
		t := order.PayTime.Add(time.Duration(between(s.rng, 1, maxDeliveryDelayH)) * time.Hour)
		order.DeliveryTime = &t
	}
	if status == model.StatusFinished {
		t := order.DeliveryTime.AddDate(0, 0, int(between(s.rng, 1, maxFinishDelayD)))
		order.FinallyTime = &t
	}

	sel, err := s.catalog.Pick(s.rng)
	if err != nil {
		return model.Order{}, nil, err
	}
	order.OrderID = s.ids.NextOrderID()
	order.ShopID = sel.ShopID
	order.ShopName = sel.ShopName
	order.AllCount = len(sel.Products)

	items, err := s.items(order, sel)
	if err != nil {
		return model.Order{}, nil, err
	}
	for _, it := range items {
		order.Total += it.SpuTotalAmount
	}
	return order, items, nil
}

func (s *Synthesizer) items(order model.Order, sel refdata.Selection) ([]model.OrderItem, error) {
	categoryID := idgen.CategoryID(sel.Category)
	items := make([]model.OrderItem, 0, len(sel.Products))
	for _, p := range sel.Products {
		lo, hi, err := p.Bounds()
		if err != nil {
			return nil, err
		}
		price := between(s.rng, lo, hi)
		count := 1 + s.rng.IntN(maxItemCount)
		spuID := idgen.SpuID(p.Name)

		items = append(items, model.OrderItem{
			OrderItemID:    s.ids.NextItemID(),
			ShopID:         order.ShopID,
			OrderID:        order.OrderID,
			CategoryID:     categoryID,
			SpuID:          spuID,
			SkuID:          spuID*10 + between(s.rng, 1, skuVariants),
			UserID:         order.UserID,
			Count:          count,
			SpuName:        p.Name,
			SkuName:        skuName(s.rng, p.Name, sel.Category),
			Pic:            fmt.Sprintf("/images/products/%s/%d.jpg", sel.Category, spuID),
			Price:          price,
			SpuTotalAmount: price * int64(count),
		})
	}
	return items, nil
}

// Graph 一个完整订单单元：同一 user_id 贯穿地址、订单、订单项。
func (s *Synthesizer) Graph() (model.OrderGraph, error) {
	addr := s.Address(s.UserID())
	order, items, err := s.Order(addr)
	if err != nil {
		return model.OrderGraph{}, err
	}
	return model.OrderGraph{Addr: addr, Order: order, Items: items}, nil
}

// Batch 连续生成 size 个订单单元，任何一个失败整批作废。
func (s *Synthesizer) Batch(seq, size int) (*model.Batch, error) {
	b := model.NewBatch(seq, size)
	for i := 0; i < size; i++ {
		g, err := s.Graph()
		if err != nil {
			return nil, fmt.Errorf("synthesize order %d of batch %d: %w", i+1, seq, err)
		}
		b.Add(g)
	}
	return b, nil
}
