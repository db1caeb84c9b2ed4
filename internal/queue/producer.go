package queue

import (
	"context"
	"errors"
)

// ErrNoWorkers 所有 worker 都已退出，队列里的令牌再也不会被取走。
var ErrNoWorkers = errors.New("all workers exited")

// Producer 把总量切成批次令牌推入有界队列，队列满时阻塞，这是唯一的背压手段。
type Producer struct {
	q         chan<- Token
	batchSize int
	obs       Observer
	gone      <-chan struct{}
}

// NewProducer gone 在最后一个 worker 退出时关闭，可为 nil。
func NewProducer(q chan<- Token, batchSize int, obs Observer, gone <-chan struct{}) *Producer {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Producer{q: q, batchSize: batchSize, obs: obs, gone: gone}
}

// Produce 推入 ⌈total/batchSize⌉ 个令牌，最后一个可能不满一批。
// 进度在入队时上报，不代表已落库。ctx 取消只停止入队。
func (p *Producer) Produce(ctx context.Context, total int) (int, error) {
	enqueued, seq := 0, 0
	for enqueued < total {
		size := min(p.batchSize, total-enqueued)
		seq++
		select {
		case p.q <- Token{Seq: seq, Size: size}:
		case <-ctx.Done():
			return enqueued, ctx.Err()
		case <-p.gone:
			return enqueued, ErrNoWorkers
		}
		enqueued += size
		p.obs.Enqueued(size)
	}
	return enqueued, nil
}

// Stop 每个 worker 一个哨兵。哨兵不受 ctx 控制，保证 worker 能排空已入队的批次后退出。
func (p *Producer) Stop(workers int) error {
	for i := 0; i < workers; i++ {
		select {
		case p.q <- stopToken:
		case <-p.gone:
			return ErrNoWorkers
		}
	}
	return nil
}
