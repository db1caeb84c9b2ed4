package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"order_datagen/internal/sink"

	"go.uber.org/zap"
)

type Config struct {
	Total         int
	BatchSize     int
	Workers       int
	QueueCapacity int
}

// Summary 一次运行的结果。Enqueued 是入队量，Orders 才是实际落库量。
type Summary struct {
	RunID         string        `json:"run_id"`
	Enqueued      int64         `json:"enqueued"`
	Abandoned     int64         `json:"abandoned"` // 入队后没有 worker 取走的订单数
	Batches       int64         `json:"batches"`
	FailedBatches int64         `json:"failed_batches"`
	Orders        int64         `json:"orders"`
	Items         int64         `json:"items"`
	WorkerErrors  int           `json:"worker_errors"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Pool 一个生产者 + 固定数量的 worker。
type Pool struct {
	cfg      Config
	sink     sink.Sink
	newSynth func(worker int) BatchSynthesizer
	obs      Observer
}

// NewPool newSynth 为每个 worker 构造独立的生成器（各自的随机源）。
func NewPool(cfg Config, sk sink.Sink, newSynth func(worker int) BatchSynthesizer, obs ...Observer) *Pool {
	return &Pool{cfg: cfg, sink: sk, newSynth: newSynth, obs: Observers(obs)}
}

// Run 阻塞到所有 worker 退出。ctx 取消只会停止入队：哨兵照常发送，
// 已入队的批次照常处理，worker 的写库不受 ctx 影响。
func (p *Pool) Run(ctx context.Context, runID string) (Summary, error) {
	start := time.Now()
	t := &tally{}
	obs := Observers{t, p.obs}

	q := make(chan Token, p.cfg.QueueCapacity)
	gone := make(chan struct{})
	var alive atomic.Int32
	alive.Store(int32(p.cfg.Workers))

	workerCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for id := 1; id <= p.cfg.Workers; id++ {
		w := NewWorker(id, q, p.sink, p.newSynth(id), obs)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Run(workerCtx)
			if err != nil {
				zap.L().Error("worker exited", zap.Int("worker", w.ID), zap.Error(err))
			} else {
				zap.L().Debug("worker stopped", zap.Int("worker", w.ID))
			}
			obs.WorkerExited(w.ID, err)
			if alive.Add(-1) == 0 {
				close(gone)
			}
		}()
	}

	prod := NewProducer(q, p.cfg.BatchSize, obs, gone)
	enqueued, produceErr := prod.Produce(ctx, p.cfg.Total)
	if produceErr != nil && !errors.Is(produceErr, ErrNoWorkers) {
		zap.L().Warn("enqueue stopped early",
			zap.Int("enqueued", enqueued),
			zap.Int("total", p.cfg.Total),
			zap.Error(produceErr))
	}
	// 哨兵发不完只说明 worker 已经全部退出，结果由 abandoned 体现
	_ = prod.Stop(p.cfg.Workers)
	wg.Wait()

	abandoned := drain(q)

	t.mu.Lock()
	workerErrs := t.workerErrs
	t.mu.Unlock()
	sum := Summary{
		RunID:         runID,
		Enqueued:      t.enqueued.Load(),
		Abandoned:     abandoned,
		Batches:       t.batches.Load(),
		FailedBatches: t.failed.Load(),
		Orders:        t.orders.Load(),
		Items:         t.items.Load(),
		WorkerErrors:  workerErrs,
		Elapsed:       time.Since(start),
	}

	if errors.Is(produceErr, ErrNoWorkers) || abandoned > 0 {
		return sum, ErrNoWorkers
	}
	return sum, produceErr
}

// drain 取出残留令牌，返回未处理的订单数
func drain(q chan Token) int64 {
	var n int64
	for {
		select {
		case tok := <-q:
			if !tok.Stop {
				n += int64(tok.Size)
			}
		default:
			return n
		}
	}
}
