package logger

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"order_datagen/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) config.LogConfig {
	return config.LogConfig{
		Level:      "info",
		Filename:   filepath.Join(t.TempDir(), "datagen.log"),
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}
}

func TestNew_WritesJSONToFile(t *testing.T) {
	cfg := testConfig(t)
	lg, err := New(cfg, "prod")
	require.NoError(t, err)

	lg.Info("batch flushed", zap.Int("worker", 2))
	lg.Debug("dropped below level")
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(cfg.Filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"batch flushed"`)
	assert.Contains(t, string(data), `"worker":2`)
	assert.NotContains(t, string(data), "dropped below level")
}

func TestNew_BadLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Level = "loud"
	_, err := New(cfg, "dev")
	assert.Error(t, err)
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinLogger(), GinRecovery(true))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
