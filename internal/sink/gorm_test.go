package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"order_datagen/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openSQLite(t *testing.T) *GormSink {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "orders.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := OpenDB("sqlite", dsn, zap.NewNop())
	require.NoError(t, err)
	s, err := NewGorm(db)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testBatch n 个订单，每单 2 个订单项，ID 从 base+1 开始
func testBatch(seq, n int, base int64) *model.Batch {
	b := model.NewBatch(seq, n)
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := int64(1); i <= int64(n); i++ {
		id := base + i
		paid := created.Add(5 * time.Minute)
		g := model.OrderGraph{
			Addr: model.OrderAddr{
				OrderAddrID: id, UserID: 100 + i, Consignee: "张三",
				ProvinceID: 440000, Province: "广东省", CityID: 440100, City: "广州市",
				AreaID: 440106, Area: "天河区", Addr: "中山路1号", PostCode: "510000",
				Mobile: "13800000000", Lng: 113.3, Lat: 23.1,
			},
			Order: model.Order{
				OrderID: id, ShopID: 7, UserID: 100 + i, DeliveryType: 1, ShopName: "小米之家",
				Status: model.StatusPaid, AllCount: 2, CreateTime: created, PayTime: &paid,
				IsPayed: true, Version: 1, OrderAddrID: id, Total: 300,
			},
		}
		for j := int64(1); j <= 2; j++ {
			g.Items = append(g.Items, model.OrderItem{
				OrderItemID: id*10 + j, ShopID: 7, OrderID: id, CategoryID: 3, SpuID: 42,
				SkuID: 421, UserID: 100 + i, Count: 1, SpuName: "耳机", SkuName: "耳机",
				Pic: "/images/products/手机数码/42.jpg", Price: 150, SpuTotalAmount: 150,
			})
		}
		b.Add(g)
	}
	return b
}

func countRows(t *testing.T, s *GormSink) (addrs, orders, items int64) {
	t.Helper()
	require.NoError(t, s.db.Model(&model.OrderAddr{}).Count(&addrs).Error)
	require.NoError(t, s.db.Model(&model.Order{}).Count(&orders).Error)
	require.NoError(t, s.db.Model(&model.OrderItem{}).Count(&items).Error)
	return
}

func TestGormSink_WriteBatch(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	err := s.Session(ctx, func(w Writer) error {
		require.NoError(t, w.WriteBatch(ctx, testBatch(1, 10, 0)))
		return w.WriteBatch(ctx, testBatch(2, 5, 10))
	})
	require.NoError(t, err)

	addrs, orders, items := countRows(t, s)
	assert.Equal(t, int64(15), addrs)
	assert.Equal(t, int64(15), orders)
	assert.Equal(t, int64(30), items)

	var got model.Order
	require.NoError(t, s.db.First(&got, "order_id = ?", 3).Error)
	assert.Equal(t, "小米之家", got.ShopName)
	assert.True(t, got.IsPayed)
	require.NotNil(t, got.PayTime)
	assert.Nil(t, got.DeliveryTime)
	assert.Equal(t, int64(300), got.Total)
}

func TestGormSink_ChunksLargeTables(t *testing.T) {
	s := openSQLite(t)
	s.chunks = chunkSizes{addr: 2, order: 3, item: 4}
	ctx := context.Background()

	err := s.Session(ctx, func(w Writer) error {
		return w.WriteBatch(ctx, testBatch(1, 7, 0))
	})
	require.NoError(t, err)

	addrs, orders, items := countRows(t, s)
	assert.Equal(t, int64(7), addrs)
	assert.Equal(t, int64(7), orders)
	assert.Equal(t, int64(14), items)
}

func TestGormSink_FailedInsertRollsBackBatch(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	bad := testBatch(1, 3, 0)
	bad.Items[1].OrderItemID = bad.Items[0].OrderItemID // 主键冲突

	var firstErr error
	err := s.Session(ctx, func(w Writer) error {
		firstErr = w.WriteBatch(ctx, bad)
		// 同一连接上的下一批不受影响
		return w.WriteBatch(ctx, testBatch(2, 2, 100))
	})
	require.NoError(t, err)
	require.Error(t, firstErr)
	assert.Contains(t, firstErr.Error(), "insert order_item")

	addrs, orders, items := countRows(t, s)
	assert.Equal(t, int64(2), addrs)
	assert.Equal(t, int64(2), orders)
	assert.Equal(t, int64(4), items)
}

func TestGormSink_EmptyBatch(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	err := s.Session(ctx, func(w Writer) error {
		return w.WriteBatch(ctx, model.NewBatch(1, 0))
	})
	require.NoError(t, err)
}

func TestGormSink_SessionAfterCloseFailsToConnect(t *testing.T) {
	s := openSQLite(t)
	require.NoError(t, s.Close())

	called := false
	err := s.Session(context.Background(), func(Writer) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnect)
	assert.False(t, called)
}

func TestOpenDB_Errors(t *testing.T) {
	_, err := OpenDB("oracle", "x", zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = OpenDB("sqlite", filepath.Join(t.TempDir(), "missing", "orders.db"), zap.NewNop())
	assert.ErrorIs(t, err, ErrConnect)
}

func TestNewGorm_ChunkSizes(t *testing.T) {
	s := openSQLite(t)
	assert.Equal(t, maxParamsSQLite/14, s.chunks.addr)
	assert.Equal(t, maxParamsSQLite/15, s.chunks.order)
	assert.Equal(t, maxParamsSQLite/13, s.chunks.item)
}

func TestOpen(t *testing.T) {
	lg := zap.NewNop()

	s, err := Open(Options{Driver: "discard"}, lg)
	require.NoError(t, err)
	assert.IsType(t, &Discard{}, s)

	s, err = Open(Options{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "orders"}, lg)
	require.NoError(t, err)
	assert.IsType(t, &KafkaSink{}, s)

	_, err = Open(Options{Driver: "kafka"}, lg)
	assert.Error(t, err)

	_, err = Open(Options{Driver: "csv"}, lg)
	assert.ErrorIs(t, err, ErrUnknownDriver)

	dsn := filepath.Join(t.TempDir(), "open.db")
	s, err = Open(Options{Driver: "sqlite", DSN: dsn, AutoMigrate: true}, lg)
	require.NoError(t, err)
	gs, ok := s.(*GormSink)
	require.True(t, ok)
	assert.True(t, gs.DB().Migrator().HasTable("order_item"))
	require.NoError(t, s.Close())
}

func TestDiscard_CountsRows(t *testing.T) {
	d := &Discard{}
	ctx := context.Background()
	first, second := testBatch(1, 4, 0), testBatch(2, 1, 4)
	err := d.Session(ctx, func(w Writer) error {
		require.NoError(t, w.WriteBatch(ctx, first))
		return w.WriteBatch(ctx, second)
	})
	require.NoError(t, err)
	// 每单 1 地址 + 1 订单 + 2 订单项
	assert.Equal(t, 16, first.Rows())
	assert.Equal(t, int64(first.Rows()+second.Rows()), d.Rows())
}
