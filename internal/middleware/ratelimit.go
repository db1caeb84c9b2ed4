package middleware

import (
	"net/http"
	"strconv"
	"time"

	rediskey "order_datagen/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slidingWindow 毫秒精度的滑动窗口，每个请求是 zset 里的一个成员。
// KEYS[1]=限流key，ARGV[1]=当前毫秒，ARGV[2]=窗口毫秒，ARGV[3]=上限，ARGV[4]=成员
// 返回 {1, 剩余次数} 或 {0, 距最早一条过期的毫秒数}
var slidingWindow = rd.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local n = redis.call('ZCARD', key)
if n >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, tonumber(oldest[2]) + window - now}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, limit - n - 1}
`)

// RedisRateLimit 按客户端 IP 限流，scope 区分接口组。
// rdb 为 nil 时不限流；Redis 不可用时放行。
func RedisRateLimit(rdb *rd.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	windowMs := max(1, window.Milliseconds())
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := rediskey.RateLimitKey(scope, c.ClientIP())
		res, err := slidingWindow.Run(c.Request.Context(), rdb, []string{key},
			time.Now().UnixMilli(), windowMs, limit, uuid.NewString()).Int64Slice()
		if err != nil || len(res) != 2 {
			zap.L().Warn("rate limit unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}

		if res[0] == 0 {
			retry := max(1, (res[1]+999)/1000)
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": 429,
				"msg":  "请求过于频繁，请稍后再试",
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
		c.Next()
	}
}
