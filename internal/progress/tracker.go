package progress

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot 某一时刻的运行进度
type Snapshot struct {
	RunID         string  `json:"run_id"`
	Status        string  `json:"status"`
	Total         int64   `json:"total"`
	Enqueued      int64   `json:"enqueued"`
	Batches       int64   `json:"batches"`
	FailedBatches int64   `json:"failed_batches"`
	Orders        int64   `json:"orders"`
	Items         int64   `json:"items"`
	WorkersActive int64   `json:"workers_active"`
	WorkerErrors  int64   `json:"worker_errors"`
	ElapsedSec    float64 `json:"elapsed_sec"`
	OrdersPerSec  float64 `json:"orders_per_sec"`
	LastError     string  `json:"last_error,omitempty"`
}

// Tracker 进程内的进度，供 /api/run 读取。
type Tracker struct {
	runID string
	total int64
	start time.Time

	enqueued atomic.Int64
	batches  atomic.Int64
	failed   atomic.Int64
	orders   atomic.Int64
	items    atomic.Int64
	active   atomic.Int64
	errs     atomic.Int64

	mu       sync.Mutex
	status   string
	lastErr  string
	finished time.Time
}

func NewTracker(runID string, total, workers int) *Tracker {
	t := &Tracker{runID: runID, total: int64(total), start: time.Now(), status: "running"}
	t.active.Store(int64(workers))
	return t
}

func (t *Tracker) Enqueued(units int) { t.enqueued.Add(int64(units)) }

func (t *Tracker) BatchFlushed(_, orders, items int, _ time.Duration) {
	t.batches.Add(1)
	t.orders.Add(int64(orders))
	t.items.Add(int64(items))
}

func (t *Tracker) BatchFailed(_ int, err error) {
	t.failed.Add(1)
	t.setLastErr(err)
}

func (t *Tracker) WorkerExited(_ int, err error) {
	t.active.Add(-1)
	if err != nil {
		t.errs.Add(1)
		t.setLastErr(err)
	}
}

func (t *Tracker) setLastErr(err error) {
	t.mu.Lock()
	t.lastErr = err.Error()
	t.mu.Unlock()
}

// Finish 记录终态，之后的耗时固定在结束时刻。
func (t *Tracker) Finish(status string) {
	t.mu.Lock()
	t.status = status
	t.finished = time.Now()
	t.mu.Unlock()
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	status, lastErr, finished := t.status, t.lastErr, t.finished
	t.mu.Unlock()

	end := time.Now()
	if !finished.IsZero() {
		end = finished
	}
	elapsed := end.Sub(t.start).Seconds()

	s := Snapshot{
		RunID:         t.runID,
		Status:        status,
		Total:         t.total,
		Enqueued:      t.enqueued.Load(),
		Batches:       t.batches.Load(),
		FailedBatches: t.failed.Load(),
		Orders:        t.orders.Load(),
		Items:         t.items.Load(),
		WorkersActive: t.active.Load(),
		WorkerErrors:  t.errs.Load(),
		ElapsedSec:    elapsed,
		LastError:     lastErr,
	}
	if elapsed > 0 {
		s.OrdersPerSec = float64(s.Orders) / elapsed
	}
	return s
}
