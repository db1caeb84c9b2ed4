package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Bar 终端进度条，跟踪入队量（不是落库量）。
type Bar struct {
	pb *progressbar.ProgressBar
}

func NewBar(total int, w io.Writer) *Bar {
	pb := progressbar.NewOptions64(int64(total),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("生成订单"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("orders"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSetWidth(40),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
	return &Bar{pb: pb}
}

func (b *Bar) Enqueued(units int) { _ = b.pb.Add(units) }

func (b *Bar) BatchFlushed(int, int, int, time.Duration) {}
func (b *Bar) BatchFailed(int, error)                    {}
func (b *Bar) WorkerExited(int, error)                   {}

func (b *Bar) Close() error { return b.pb.Close() }
