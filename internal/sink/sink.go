package sink

import (
	"context"
	"errors"

	"order_datagen/internal/model"
)

var ErrUnknownDriver = errors.New("unknown sink driver")

// Writer 绑定在一条独占连接上，一次写入一整批。
type Writer interface {
	// WriteBatch 依次写入 order_addr → order → order_item，
	// 失败时整批作废，不重试。
	WriteBatch(ctx context.Context, b *model.Batch) error
}

// Sink 存储后端。每个 worker 通过 Session 拿到自己的 Writer，连接不跨 worker 共享。
type Sink interface {
	// Session 建立一条专用连接并执行 fn，fn 返回后释放连接。
	// 连接建立失败时 fn 不会被调用，返回的错误包裹 ErrConnect。
	Session(ctx context.Context, fn func(Writer) error) error
	Close() error
}

// ErrConnect 连接建立失败，对 worker 是致命错误。
var ErrConnect = errors.New("sink connect")
