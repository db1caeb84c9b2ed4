package idgen

import (
	"sync/atomic"
	"time"
)

// Allocator 三个互相独立的自增 ID 空间（地址、订单、订单项）。
// 每个计数器各自原子递增，不共用锁；跨 worker 的 ID 交错，只保证唯一且单调。
type Allocator struct {
	addr  atomic.Int64
	order atomic.Int64
	item  atomic.Int64
}

// NewAllocator 地址和订单项从 0 开始；订单号以启动时刻的微秒时间戳为起点，
// 降低多次运行之间订单号重复的概率。计数器不持久化，重启后地址/订单项 ID 会重新从 1 开始。
func NewAllocator(start time.Time) *Allocator {
	return NewAllocatorFrom(0, start.UnixMicro(), 0)
}

// NewAllocatorFrom 指定三个计数器的初始值，返回的第一个 ID 为初始值 + 1。
func NewAllocatorFrom(addr, order, item int64) *Allocator {
	a := &Allocator{}
	a.addr.Store(addr)
	a.order.Store(order)
	a.item.Store(item)
	return a
}

func (a *Allocator) NextAddressID() int64 { return a.addr.Add(1) }

func (a *Allocator) NextOrderID() int64 { return a.order.Add(1) }

func (a *Allocator) NextItemID() int64 { return a.item.Add(1) }
