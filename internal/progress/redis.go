package progress

import (
	"context"
	"sync"
	"time"

	rediskey "order_datagen/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisReporter 把进度累积在内存，定时合并写入 Redis，不在 worker 路径上做网络调用。
type RedisReporter struct {
	rdb      *rd.Client
	runID    string
	ttl      time.Duration
	interval time.Duration

	mu      sync.Mutex
	pending map[string]int64

	started bool
	stop    chan struct{}
	done    chan struct{}
}

func NewRedisReporter(rdb *rd.Client, runID string, ttl, interval time.Duration) *RedisReporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &RedisReporter{
		rdb:      rdb,
		runID:    runID,
		ttl:      ttl,
		interval: interval,
		pending:  make(map[string]int64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 写入初始状态并启动后台刷新。
func (r *RedisReporter) Start(ctx context.Context, st rediskey.RunState) error {
	st.RunID = r.runID
	if err := rediskey.StartRun(ctx, r.rdb, st, r.ttl); err != nil {
		close(r.done)
		return err
	}
	r.started = true
	go r.loop(context.WithoutCancel(ctx))
	return nil
}

func (r *RedisReporter) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.flush(ctx)
		case <-r.stop:
			return
		}
	}
}

func (r *RedisReporter) add(field string, delta int64) {
	r.mu.Lock()
	r.pending[field] += delta
	r.mu.Unlock()
}

func (r *RedisReporter) flush(ctx context.Context) {
	r.mu.Lock()
	deltas := r.pending
	r.pending = make(map[string]int64)
	r.mu.Unlock()

	if err := rediskey.IncrRun(ctx, r.rdb, r.runID, deltas); err != nil {
		zap.L().Warn("report run progress failed", zap.String("run_id", r.runID), zap.Error(err))
		// 放回去，下次一起提交
		r.mu.Lock()
		for k, v := range deltas {
			r.pending[k] += v
		}
		r.mu.Unlock()
	}
}

func (r *RedisReporter) Enqueued(units int) { r.add(rediskey.FieldEnqueued, int64(units)) }

func (r *RedisReporter) BatchFlushed(_, orders, items int, _ time.Duration) {
	r.mu.Lock()
	r.pending[rediskey.FieldBatches]++
	r.pending[rediskey.FieldOrders] += int64(orders)
	r.pending[rediskey.FieldItems] += int64(items)
	r.mu.Unlock()
}

func (r *RedisReporter) BatchFailed(int, error) { r.add(rediskey.FieldFailedBatches, 1) }

func (r *RedisReporter) WorkerExited(_ int, err error) {
	if err != nil {
		r.add(rediskey.FieldWorkerErrors, 1)
	}
}

// Finish 停止后台刷新，提交剩余计数并写入终态。
func (r *RedisReporter) Finish(ctx context.Context, status, reason string) error {
	if !r.started {
		return nil
	}
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.done
	r.flush(ctx)
	_, err := rediskey.FinishRun(ctx, r.rdb, r.runID, status, reason, time.Now())
	return err
}
