package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Observer 接收流水线事件。实现必须可并发调用，且不能阻塞 worker。
type Observer interface {
	Enqueued(units int)
	BatchFlushed(worker, orders, items int, elapsed time.Duration)
	BatchFailed(worker int, err error)
	WorkerExited(worker int, err error)
}

// Observers 依次转发给每个观察者
type Observers []Observer

func (m Observers) Enqueued(units int) {
	for _, o := range m {
		o.Enqueued(units)
	}
}

func (m Observers) BatchFlushed(worker, orders, items int, elapsed time.Duration) {
	for _, o := range m {
		o.BatchFlushed(worker, orders, items, elapsed)
	}
}

func (m Observers) BatchFailed(worker int, err error) {
	for _, o := range m {
		o.BatchFailed(worker, err)
	}
}

func (m Observers) WorkerExited(worker int, err error) {
	for _, o := range m {
		o.WorkerExited(worker, err)
	}
}

type NopObserver struct{}

func (NopObserver) Enqueued(int)                              {}
func (NopObserver) BatchFlushed(int, int, int, time.Duration) {}
func (NopObserver) BatchFailed(int, error)                    {}
func (NopObserver) WorkerExited(int, error)                   {}

// tally 汇总一次运行的结果，生成 Summary
type tally struct {
	enqueued atomic.Int64
	batches  atomic.Int64
	failed   atomic.Int64
	orders   atomic.Int64
	items    atomic.Int64

	mu         sync.Mutex
	workerErrs int
}

func (t *tally) Enqueued(units int) { t.enqueued.Add(int64(units)) }

func (t *tally) BatchFlushed(_, orders, items int, _ time.Duration) {
	t.batches.Add(1)
	t.orders.Add(int64(orders))
	t.items.Add(int64(items))
}

func (t *tally) BatchFailed(int, error) { t.failed.Add(1) }

func (t *tally) WorkerExited(_ int, err error) {
	if err == nil {
		return
	}
	t.mu.Lock()
	t.workerErrs++
	t.mu.Unlock()
}
