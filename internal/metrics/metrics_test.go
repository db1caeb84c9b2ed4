package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Observer(t *testing.T) {
	r := NewRegistry(4)

	r.Enqueued(1000)
	r.Enqueued(500)
	r.BatchFlushed(1, 1000, 2000, 300*time.Millisecond)
	r.BatchFailed(2, errors.New("duplicate key"))
	r.WorkerExited(1, nil)
	r.WorkerExited(2, errors.New("connection refused"))

	assert.Equal(t, 1500.0, testutil.ToFloat64(r.EnqueuedOrders))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Batches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Batches.WithLabelValues("failed")))
	assert.Equal(t, 1000.0, testutil.ToFloat64(r.OrdersWritten))
	assert.Equal(t, 2000.0, testutil.ToFloat64(r.ItemsWritten))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.WorkersActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.WorkerExits.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.BatchSeconds))
}

func TestRegistry_HandlerAndMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := NewRegistry(1)
	r := gin.New()
	r.Use(reg.Middleware())
	r.GET("/metrics", gin.WrapH(reg.Handler()))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "datagen_workers_active 1"))
	assert.True(t, strings.Contains(body, `datagen_http_requests_total{endpoint="/ping",method="GET",status_code="200"} 1`))
}
