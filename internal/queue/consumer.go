package queue

import (
	"context"
	"fmt"
	"time"

	"order_datagen/internal/model"
	"order_datagen/internal/sink"

	"go.uber.org/zap"
)

// BatchSynthesizer 生成一批订单，每个 worker 独占一个实例。
type BatchSynthesizer interface {
	Batch(seq, size int) (*model.Batch, error)
}

// Worker 持有一条独占连接，循环 取令牌 → 生成 → 落库，收到哨兵后退出。
type Worker struct {
	ID    int
	q     <-chan Token
	sink  sink.Sink
	synth BatchSynthesizer
	obs   Observer
}

func NewWorker(id int, q <-chan Token, sk sink.Sink, synth BatchSynthesizer, obs Observer) *Worker {
	if obs == nil {
		obs = NopObserver{}
	}
	return &Worker{ID: id, q: q, sink: sk, synth: synth, obs: obs}
}

// Run 返回 nil 表示正常收到哨兵；连接建立失败或生成失败时返回错误，worker 不再处理后续令牌。
// 单批写入失败只记录，继续下一批。
func (w *Worker) Run(ctx context.Context) error {
	return w.sink.Session(ctx, func(wr sink.Writer) error {
		for tok := range w.q {
			if tok.Stop {
				return nil
			}
			if err := w.handle(ctx, wr, tok); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Worker) handle(ctx context.Context, wr sink.Writer, tok Token) error {
	start := time.Now()

	b, err := w.synth.Batch(tok.Seq, tok.Size)
	if err != nil {
		w.obs.BatchFailed(w.ID, err)
		return fmt.Errorf("worker %d: %w", w.ID, err)
	}

	if err := wr.WriteBatch(ctx, b); err != nil {
		w.obs.BatchFailed(w.ID, err)
		zap.L().Error("batch flush failed",
			zap.Int("worker", w.ID),
			zap.Int("seq", tok.Seq),
			zap.Int("orders", len(b.Orders)),
			zap.Error(err))
		return nil
	}

	w.obs.BatchFlushed(w.ID, len(b.Orders), len(b.Items), time.Since(start))
	return nil
}
