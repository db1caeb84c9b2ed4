package synth

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
	"time"

	"order_datagen/internal/idgen"
	"order_datagen/internal/model"
	"order_datagen/internal/refdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 30, 45, 0, time.UTC)

const regionsDoc = `[
  {"code": "110000", "name": "北京市", "children": [
    {"code": "110101", "name": "东城区", "city": "北京市"}
  ]},
  {"code": 440000, "name": "广东省", "children": [
    {"code": 440100, "name": "广州市", "children": [
      {"code": 440106, "name": "天河区"}
    ]}
  ]}
]`

const catalogDoc = `{
  "手机数码": {"小米之家": [
    {"name": "小米14 手机", "price_range": [3999, 4999]},
    {"name": "Redmi Buds 5", "price_range": [199, 299]}
  ]},
  "男装服饰": {"优衣库": [
    {"name": "纯棉T恤", "price_range": [59.9, 99.5]},
    {"name": "休闲裤", "price_range": [149, 199]},
    {"name": "羽绒服", "price_range": [399, 699]},
    {"name": "衬衫", "price_range": [129, 199]}
  ]}
}`

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newStore(t *testing.T, regions, catalog string) *refdata.Store {
	t.Helper()
	tree, err := refdata.ParseRegions([]byte(regions))
	require.NoError(t, err)
	cat, err := refdata.ParseCatalog([]byte(catalog))
	require.NoError(t, err)
	return &refdata.Store{Regions: tree, Catalog: cat}
}

func newSynth(t *testing.T, regions, catalog string, seed uint64) *Synthesizer {
	t.Helper()
	return New(newRand(seed), newStore(t, regions, catalog), idgen.NewAllocatorFrom(0, 0, 0),
		WithClock(func() time.Time { return fixedNow }))
}

func TestSynthesizer_TimestampsFollowStatus(t *testing.T) {
	s := newSynth(t, regionsDoc, catalogDoc, 7)
	seen := map[int]bool{}

	for i := 0; i < 2000; i++ {
		g, err := s.Graph()
		require.NoError(t, err)
		o := g.Order
		seen[o.Status] = true

		require.GreaterOrEqual(t, o.Status, 1)
		require.LessOrEqual(t, o.Status, 6)
		assert.Equal(t, o.Status >= model.StatusPaid, o.IsPayed)
		assert.Equal(t, 1, o.Version)
		assert.GreaterOrEqual(t, o.DeliveryType, 1)
		assert.LessOrEqual(t, o.DeliveryType, 3)

		age := fixedNow.Sub(o.CreateTime)
		assert.GreaterOrEqual(t, age, 24*time.Hour)
		assert.LessOrEqual(t, age, 90*24*time.Hour)

		if o.Status >= model.StatusPaid {
			require.NotNil(t, o.PayTime)
			d := o.PayTime.Sub(o.CreateTime)
			assert.True(t, d >= time.Minute && d <= 60*time.Minute, "pay delay %s", d)
		} else {
			assert.Nil(t, o.PayTime)
		}
		if o.Status >= model.StatusDelivered {
			require.NotNil(t, o.DeliveryTime)
			d := o.DeliveryTime.Sub(*o.PayTime)
			assert.True(t, d >= time.Hour && d <= 48*time.Hour, "delivery delay %s", d)
		} else {
			assert.Nil(t, o.DeliveryTime)
		}
		if o.Status == model.StatusFinished {
			require.NotNil(t, o.FinallyTime)
			assert.True(t, o.FinallyTime.After(*o.DeliveryTime))
			assert.LessOrEqual(t, o.FinallyTime.Sub(*o.DeliveryTime), 7*24*time.Hour)
		} else {
			assert.Nil(t, o.FinallyTime)
		}
	}

	for status := 1; status <= 6; status++ {
		assert.True(t, seen[status], "status %d never generated", status)
	}
}

func TestSynthesizer_GraphIsConsistent(t *testing.T) {
	s := newSynth(t, regionsDoc, catalogDoc, 11)

	for i := 0; i < 500; i++ {
		g, err := s.Graph()
		require.NoError(t, err)

		assert.Equal(t, g.Addr.OrderAddrID, g.Order.OrderAddrID)
		assert.Equal(t, g.Addr.UserID, g.Order.UserID)
		assert.GreaterOrEqual(t, g.Order.UserID, int64(1))
		assert.LessOrEqual(t, g.Order.UserID, int64(DefaultMaxUserID))

		require.NotEmpty(t, g.Items)
		assert.LessOrEqual(t, len(g.Items), 3)
		assert.Equal(t, len(g.Items), g.Order.AllCount)

		var total int64
		for _, it := range g.Items {
			assert.Equal(t, g.Order.OrderID, it.OrderID)
			assert.Equal(t, g.Order.ShopID, it.ShopID)
			assert.Equal(t, g.Order.UserID, it.UserID)
			assert.Equal(t, it.Price*int64(it.Count), it.SpuTotalAmount)
			assert.GreaterOrEqual(t, it.Count, 1)
			assert.LessOrEqual(t, it.Count, 3)

			variant := it.SkuID - it.SpuID*10
			assert.True(t, variant >= 1 && variant <= 5, "sku variant %d", variant)
			assert.Equal(t, idgen.SpuID(it.SpuName), it.SpuID)
			assert.True(t, strings.HasPrefix(it.SkuName, it.SpuName))
			assert.True(t, strings.HasPrefix(it.Pic, "/images/products/"))
			assert.True(t, strings.HasSuffix(it.Pic, ".jpg"))
			total += it.SpuTotalAmount
		}
		assert.Equal(t, total, g.Order.Total)
	}
}

func TestSynthesizer_PriceWithinFlooredBounds(t *testing.T) {
	s := newSynth(t, regionsDoc, catalogDoc, 3)
	for i := 0; i < 500; i++ {
		g, err := s.Graph()
		require.NoError(t, err)
		for _, it := range g.Items {
			if it.SpuName == "纯棉T恤" {
				assert.True(t, it.Price >= 59 && it.Price <= 99, "price %d", it.Price)
			}
		}
	}
}

func TestSynthesizer_AddressFromRegionTree(t *testing.T) {
	s := newSynth(t, regionsDoc, catalogDoc, 5)
	mobile := regexp.MustCompile(`^1\d{10}$`)
	postCode := regexp.MustCompile(`^\d{6}$`)

	for i := 0; i < 200; i++ {
		addr := s.Address(42)
		assert.Equal(t, int64(42), addr.UserID)
		assert.NotEmpty(t, addr.Consignee)
		assert.NotEmpty(t, addr.Addr)
		assert.Regexp(t, mobile, addr.Mobile)
		assert.Regexp(t, postCode, addr.PostCode)
		assert.True(t, addr.Lng >= -180 && addr.Lng <= 180)
		assert.True(t, addr.Lat >= -90 && addr.Lat <= 90)

		switch addr.ProvinceID {
		case 110000:
			assert.Equal(t, int64(110000), addr.CityID)
			assert.Equal(t, "北京市", addr.City)
			assert.Equal(t, int64(110101), addr.AreaID)
		case 440000:
			assert.Equal(t, int64(440100), addr.CityID)
			assert.Equal(t, int64(440106), addr.AreaID)
			assert.Equal(t, "天河区", addr.Area)
		default:
			t.Fatalf("unexpected province %d", addr.ProvinceID)
		}
	}
}

func TestSynthesizer_AddressFallback(t *testing.T) {
	noAreas := `[{"code": "710000", "name": "台湾省", "children": []}]`
	s := newSynth(t, noAreas, catalogDoc, 9)

	for i := 0; i < 200; i++ {
		addr := s.Address(1)
		assert.True(t, addr.ProvinceID >= 1 && addr.ProvinceID <= 34, "province %d", addr.ProvinceID)
		assert.True(t, addr.CityID >= 1 && addr.CityID <= 400, "city %d", addr.CityID)
		assert.True(t, addr.AreaID >= 1 && addr.AreaID <= 3000, "area %d", addr.AreaID)
		assert.NotEmpty(t, addr.Province)
		assert.NotEmpty(t, addr.City)
		assert.NotEmpty(t, addr.Area)
	}
}

func TestSynthesizer_BatchOfOne(t *testing.T) {
	s := newSynth(t, regionsDoc, `{"C": {"S": [{"name": "P", "price_range": [10, 20]}]}}`, 1)

	b, err := s.Batch(1, 1)
	require.NoError(t, err)
	require.Len(t, b.Addrs, 1)
	require.Len(t, b.Orders, 1)
	require.Len(t, b.Items, 1)

	item := b.Items[0]
	assert.Equal(t, int64(1), b.Addrs[0].OrderAddrID)
	assert.Equal(t, int64(1), b.Orders[0].OrderID)
	assert.Equal(t, int64(1), item.OrderItemID)
	assert.Equal(t, "P", item.SpuName)
	assert.Equal(t, "P", item.SkuName)
	assert.Equal(t, idgen.ShopID("S"), b.Orders[0].ShopID)
	assert.Equal(t, idgen.CategoryID("C"), item.CategoryID)
	assert.True(t, item.Price >= 10 && item.Price <= 20)
	assert.Equal(t, item.SpuTotalAmount, b.Orders[0].Total)
	assert.Equal(t, 3, b.Rows())
}

func TestSynthesizer_BatchIDsAreSequential(t *testing.T) {
	s := newSynth(t, regionsDoc, catalogDoc, 21)

	b, err := s.Batch(1, 50)
	require.NoError(t, err)
	for i, o := range b.Orders {
		assert.Equal(t, int64(i+1), o.OrderID)
		assert.Equal(t, int64(i+1), b.Addrs[i].OrderAddrID)
	}
	for i, it := range b.Items {
		assert.Equal(t, int64(i+1), it.OrderItemID)
	}
}

func TestSynthesizer_MalformedCatalogAbortsBatch(t *testing.T) {
	bad := `{"C": {"S": [{"name": "P", "price_range": ["cheap", 20]}]}}`
	s := newSynth(t, regionsDoc, bad, 1)

	b, err := s.Batch(4, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, refdata.ErrMalformedCatalog)
	assert.Nil(t, b)
}

func TestSynthesizer_MaxUserID(t *testing.T) {
	s := New(newRand(1), newStore(t, regionsDoc, catalogDoc), idgen.NewAllocatorFrom(0, 0, 0), WithMaxUserID(2))
	for i := 0; i < 100; i++ {
		id := s.UserID()
		assert.True(t, id == 1 || id == 2, "user id %d", id)
	}
}

func TestSkuName(t *testing.T) {
	r := newRand(1)

	phone := skuName(r, "小米14 手机", "手机数码")
	assert.Contains(t, phoneSpecs, strings.TrimPrefix(phone, "小米14 手机 "))

	iphone := skuName(r, "iPhone 15", "手机数码")
	assert.Contains(t, phoneSpecs, strings.TrimPrefix(iphone, "iPhone 15 "))

	laptop := skuName(r, "ThinkPad 笔记本", "电脑办公")
	assert.Contains(t, laptopSpecs, strings.TrimPrefix(laptop, "ThinkPad 笔记本 "))

	shirt := strings.Fields(skuName(r, "纯棉T恤", "男装服饰"))
	require.Len(t, shirt, 3)
	assert.Contains(t, sizeSpecs, shirt[1])
	assert.Contains(t, colorSpecs, shirt[2])

	shoes := strings.Fields(skuName(r, "跑步鞋", "运动鞋"))
	require.Len(t, shoes, 3)

	assert.Equal(t, "坚果礼盒", skuName(r, "坚果礼盒", "食品生鲜"))
}
