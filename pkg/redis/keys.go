package redis

import "fmt"

// RunStateKey 一次生成任务的运行状态 hash。
func RunStateKey(runID string) string {
	return fmt.Sprintf("datagen:run:%s", runID)
}

// RunIndexKey 按开始时间排序的 run_id 集合（zset，score 为开始时间戳）。
const RunIndexKey = "datagen:runs"

// RateLimitKey 统计接口按客户端 IP 限流。
func RateLimitKey(scope, ip string) string {
	return fmt.Sprintf("datagen:rate_limit:%s:ip:%s", scope, ip)
}
