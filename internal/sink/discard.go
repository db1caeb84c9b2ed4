package sink

import (
	"context"
	"sync/atomic"

	"order_datagen/internal/model"
)

// Discard 只计数不落库，用于压测生成速度。
type Discard struct {
	rows atomic.Int64
}

func (d *Discard) Session(ctx context.Context, fn func(Writer) error) error {
	return fn(d)
}

func (d *Discard) WriteBatch(_ context.Context, b *model.Batch) error {
	d.rows.Add(int64(b.Rows()))
	return nil
}

// Rows 累计"写入"的行数
func (d *Discard) Rows() int64 { return d.rows.Load() }

func (d *Discard) Close() error { return nil }
