package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 生成流水线指标，实现 queue.Observer。
type Registry struct {
	reg *prometheus.Registry

	EnqueuedOrders prometheus.Counter
	Batches        *prometheus.CounterVec // result = ok | failed
	OrdersWritten  prometheus.Counter
	ItemsWritten   prometheus.Counter
	BatchSeconds   prometheus.Histogram
	WorkersActive  prometheus.Gauge
	WorkerExits    *prometheus.CounterVec // reason = stop | error

	HTTPRequests *prometheus.CounterVec
}

func NewRegistry(workers int) *Registry {
	r := prometheus.NewRegistry()
	enqueued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datagen_enqueued_orders_total",
		Help: "入队的订单数（尚未落库）",
	})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datagen_batches_total",
		Help: "处理完成的批次数",
	}, []string{"result"})
	orders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datagen_orders_written_total",
		Help: "已落库的订单数",
	})
	items := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "datagen_items_written_total",
		Help: "已落库的订单项数",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "datagen_batch_seconds",
		Help:    "单批生成 + 写入耗时",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "datagen_workers_active",
		Help: "仍在运行的 worker 数",
	})
	exits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datagen_worker_exits_total",
		Help: "worker 退出次数",
	}, []string{"reason"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "datagen_http_requests_total",
		Help: "状态服务请求数",
	}, []string{"method", "endpoint", "status_code"})

	r.MustRegister(enqueued, batches, orders, items, latency, active, exits, httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	active.Set(float64(workers))

	return &Registry{
		reg:            r,
		EnqueuedOrders: enqueued,
		Batches:        batches,
		OrdersWritten:  orders,
		ItemsWritten:   items,
		BatchSeconds:   latency,
		WorkersActive:  active,
		WorkerExits:    exits,
		HTTPRequests:   httpRequests,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) Enqueued(units int) { r.EnqueuedOrders.Add(float64(units)) }

func (r *Registry) BatchFlushed(_, orders, items int, elapsed time.Duration) {
	r.Batches.WithLabelValues("ok").Inc()
	r.OrdersWritten.Add(float64(orders))
	r.ItemsWritten.Add(float64(items))
	r.BatchSeconds.Observe(elapsed.Seconds())
}

func (r *Registry) BatchFailed(int, error) {
	r.Batches.WithLabelValues("failed").Inc()
}

func (r *Registry) WorkerExited(_ int, err error) {
	r.WorkersActive.Dec()
	reason := "stop"
	if err != nil {
		reason = "error"
	}
	r.WorkerExits.WithLabelValues(reason).Inc()
}

// Middleware 统计状态服务的请求，endpoint 用路由模板避免基数爆炸
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		r.HTTPRequests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
