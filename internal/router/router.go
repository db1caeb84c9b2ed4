package router

import (
	"net/http"
	"strconv"
	"time"

	"order_datagen/internal/metrics"
	"order_datagen/internal/middleware"
	"order_datagen/internal/progress"
	"order_datagen/internal/report"
	rediskey "order_datagen/pkg/redis"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
)

// Deps 状态服务依赖。Redis 和 Stats 可以为 nil：
// 没有 Redis 时 /api/run/:run_id 返回 503 且统计接口不限流，
// 非 SQL sink 时统计接口返回 503。
type Deps struct {
	Tracker *progress.Tracker
	Metrics *metrics.Registry
	Redis   *rd.Client
	Stats   *report.Repository

	RateLimit  int
	RateWindow time.Duration
}

// Setup 注册全部 HTTP 路由。
func Setup(r *gin.Engine, d Deps) {
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "pong"})
	})

	// run progress
	r.GET("/api/run", currentRun(d.Tracker))
	r.GET("/api/run/:run_id", getRun(d.Redis))
	r.GET("/api/runs", listRuns(d.Redis))

	// stats
	stats := r.Group("/api/stats", middleware.RedisRateLimit(d.Redis, "stats", d.RateLimit, d.RateWindow), requireStats(d.Stats))
	stats.GET("/totals", getTotals(d.Stats))
	stats.GET("/status", statusStats(d.Stats))
	stats.GET("/regions", regionStats(d.Stats))
	stats.GET("/products", productSales(d.Stats))
	stats.GET("/shops", shopSales(d.Stats))
}

// currentRun 本进程正在执行（或刚结束）的任务进度。
func currentRun(tr *progress.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tr == nil {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "没有正在运行的任务"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": tr.Snapshot()})
	}
}

// getRun 从 Redis 读取任意一次运行的状态，跨进程可见。
func getRun(rdb *rd.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "未配置 Redis，无法查询历史任务"})
			return
		}
		runID := c.Param("run_id")
		if runID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "run_id 必填"})
			return
		}

		st, found, err := rediskey.GetRunState(c.Request.Context(), rdb, runID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"code": 404, "msg": "run_id 不存在或已过期"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": st})
	}
}

// listRuns 最近的若干次运行，新的在前。状态已过期的 run_id 跳过。
func listRuns(rdb *rd.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "未配置 Redis，无法查询历史任务"})
			return
		}
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		limit = min(limit, report.MaxLimit)

		ctx := c.Request.Context()
		ids, err := rediskey.RecentRuns(ctx, rdb, int64(limit))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		runs := make([]rediskey.RunState, 0, len(ids))
		for _, id := range ids {
			st, found, err := rediskey.GetRunState(ctx, rdb, id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
				return
			}
			if found {
				runs = append(runs, st)
			}
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": runs})
	}
}

func requireStats(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if repo == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"code": 503, "msg": "当前 sink 不是关系库，统计不可用"})
			return
		}
		c.Next()
	}
}

func getTotals(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := repo.Totals(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": t})
	}
}

func statusStats(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := repo.StatusStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

func regionStats(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := repo.RegionStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

func productSales(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		list, err := repo.ProductSales(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

func shopSales(repo *report.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}
		list, err := repo.ShopSales(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": list})
	}
}

// parseLimit ?limit= 可选，非法时直接写 400
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(report.DefaultLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "msg": "limit 必须是正整数"})
		return 0, false
	}
	return limit, true
}
