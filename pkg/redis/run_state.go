package redis

import (
	"context"
	"strconv"
	"time"

	rd "github.com/redis/go-redis/v9"
)

const (
	// RunRunning 正在入队/落库
	RunRunning = "running"
	// RunFinished 所有 worker 正常退出
	RunFinished = "finished"
	// RunInterrupted 收到信号提前停止入队
	RunInterrupted = "interrupted"
	// RunFailed worker 全部异常退出，仍有批次未处理
	RunFailed = "failed"
)

// 计数字段，HINCRBY 累加
const (
	FieldEnqueued      = "enqueued"
	FieldBatches       = "batches"
	FieldFailedBatches = "failed_batches"
	FieldOrders        = "orders"
	FieldItems         = "items"
	FieldWorkerErrors  = "worker_errors"
)

// RunState 对应 Redis 内的运行状态结构。
type RunState struct {
	RunID         string     `json:"run_id"`
	Status        string     `json:"status"`
	Sink          string     `json:"sink"`
	Total         int64      `json:"total"`
	Workers       int64      `json:"workers"`
	Enqueued      int64      `json:"enqueued"`
	Batches       int64      `json:"batches"`
	FailedBatches int64      `json:"failed_batches"`
	Orders        int64      `json:"orders"`
	Items         int64      `json:"items"`
	WorkerErrors  int64      `json:"worker_errors"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// StartRun 写入初始状态并登记到索引，刷新 TTL。
func StartRun(ctx context.Context, rdb *rd.Client, st RunState, ttl time.Duration) error {
	key := RunStateKey(st.RunID)
	pipe := rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"run_id", st.RunID,
		"status", RunRunning,
		"sink", st.Sink,
		"total", st.Total,
		"workers", st.Workers,
		"started_at", st.StartedAt.Unix(),
		FieldEnqueued, 0,
		FieldBatches, 0,
		FieldFailedBatches, 0,
		FieldOrders, 0,
		FieldItems, 0,
		FieldWorkerErrors, 0,
	)
	pipe.ZAdd(ctx, RunIndexKey, rd.Z{Score: float64(st.StartedAt.Unix()), Member: st.RunID})
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
		pipe.Expire(ctx, RunIndexKey, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// incrRunIfExists 状态已过期时不再累加，避免 HINCRBY 重建一个没有 TTL 的 key。
// KEYS[1]=状态key，ARGV 为 field, delta 成对出现
var incrRunIfExists = rd.NewScript(`
local key = KEYS[1]
if redis.call('EXISTS', key) == 0 then
  return 0
end
for i = 1, #ARGV, 2 do
  redis.call('HINCRBY', key, ARGV[i], ARGV[i + 1])
end
return 1
`)

// IncrRun 一次提交多个计数增量。状态不存在（未开始或已过期）时静默跳过。
func IncrRun(ctx context.Context, rdb *rd.Client, runID string, deltas map[string]int64) error {
	args := make([]any, 0, len(deltas)*2)
	for field, d := range deltas {
		if d != 0 {
			args = append(args, field, d)
		}
	}
	if len(args) == 0 {
		return nil
	}
	return incrRunIfExists.Run(ctx, rdb, []string{RunStateKey(runID)}, args...).Err()
}

// luaFinishRunOnce 只有 running 状态才能转入终态，重复调用不会覆盖第一次的结果。
// KEYS[1]=状态key，ARGV[1]=终态，ARGV[2]=结束时间戳，ARGV[3]=原因
const luaFinishRunOnce = `
local key = KEYS[1]
if redis.call('HGET', key, 'status') == 'running' then
  redis.call('HSET', key, 'status', ARGV[1], 'finished_at', ARGV[2], 'reason', ARGV[3])
  return 1
end
return 0
`

// FinishRun 写入终态。首次成功返回 true，状态不存在或已是终态返回 false。
func FinishRun(ctx context.Context, rdb *rd.Client, runID, status, reason string, at time.Time) (bool, error) {
	n, err := rdb.Eval(ctx, luaFinishRunOnce, []string{RunStateKey(runID)}, status, at.Unix(), reason).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetRunState 查询运行状态。found=false 表示 key 不存在（未开始或已过期）。
func GetRunState(ctx context.Context, rdb *rd.Client, runID string) (RunState, bool, error) {
	m, err := rdb.HGetAll(ctx, RunStateKey(runID)).Result()
	if err != nil {
		return RunState{}, false, err
	}
	if len(m) == 0 {
		return RunState{}, false, nil
	}

	out := RunState{
		RunID:         runID,
		Status:        m["status"],
		Sink:          m["sink"],
		Total:         atoi(m["total"]),
		Workers:       atoi(m["workers"]),
		Enqueued:      atoi(m[FieldEnqueued]),
		Batches:       atoi(m[FieldBatches]),
		FailedBatches: atoi(m[FieldFailedBatches]),
		Orders:        atoi(m[FieldOrders]),
		Items:         atoi(m[FieldItems]),
		WorkerErrors:  atoi(m[FieldWorkerErrors]),
		StartedAt:     time.Unix(atoi(m["started_at"]), 0),
		Reason:        m["reason"],
	}
	if out.Status == "" {
		out.Status = RunRunning
	}
	if v, ok := m["finished_at"]; ok && v != "" {
		t := time.Unix(atoi(v), 0)
		out.FinishedAt = &t
	}
	return out, true, nil
}

// RecentRuns 最近开始的 n 个 run_id，新的在前。
func RecentRuns(ctx context.Context, rdb *rd.Client, n int64) ([]string, error) {
	return rdb.ZRevRange(ctx, RunIndexKey, 0, n-1).Result()
}

func atoi(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
