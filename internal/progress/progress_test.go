package progress

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	rediskey "order_datagen/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Snapshot(t *testing.T) {
	tr := NewTracker("run-1", 3000, 2)
	tr.Enqueued(1000)
	tr.Enqueued(1000)
	tr.BatchFlushed(1, 1000, 1800, time.Second)
	tr.BatchFailed(2, errors.New("lock wait timeout"))
	tr.WorkerExited(2, errors.New("connection refused"))

	s := tr.Snapshot()
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "running", s.Status)
	assert.Equal(t, int64(3000), s.Total)
	assert.Equal(t, int64(2000), s.Enqueued)
	assert.Equal(t, int64(1), s.Batches)
	assert.Equal(t, int64(1), s.FailedBatches)
	assert.Equal(t, int64(1000), s.Orders)
	assert.Equal(t, int64(1800), s.Items)
	assert.Equal(t, int64(1), s.WorkersActive)
	assert.Equal(t, int64(1), s.WorkerErrors)
	assert.Equal(t, "connection refused", s.LastError)

	tr.Finish("finished")
	first := tr.Snapshot()
	time.Sleep(10 * time.Millisecond)
	second := tr.Snapshot()
	assert.Equal(t, "finished", second.Status)
	assert.Equal(t, first.ElapsedSec, second.ElapsedSec)
}

func TestBar_TracksEnqueued(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(100, &buf)
	b.Enqueued(40)
	b.Enqueued(60)
	require.NoError(t, b.Close())
	assert.Equal(t, 1.0, b.pb.State().CurrentPercent)
}

func TestRedisReporter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()

	rep := NewRedisReporter(rdb, "run-9", time.Hour, 10*time.Millisecond)
	require.NoError(t, rep.Start(ctx, rediskey.RunState{Sink: "sqlite", Total: 2000, Workers: 2, StartedAt: time.Now()}))

	rep.Enqueued(1000)
	rep.BatchFlushed(1, 1000, 2500, time.Second)

	require.Eventually(t, func() bool {
		st, found, err := rediskey.GetRunState(ctx, rdb, "run-9")
		return err == nil && found && st.Orders == 1000
	}, time.Second, 10*time.Millisecond)

	rep.Enqueued(1000)
	rep.BatchFailed(2, errors.New("duplicate"))
	rep.WorkerExited(1, nil)
	rep.WorkerExited(2, errors.New("gone"))
	require.NoError(t, rep.Finish(ctx, rediskey.RunFinished, ""))

	st, found, err := rediskey.GetRunState(ctx, rdb, "run-9")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rediskey.RunFinished, st.Status)
	assert.Equal(t, "sqlite", st.Sink)
	assert.Equal(t, int64(2000), st.Enqueued)
	assert.Equal(t, int64(1), st.Batches)
	assert.Equal(t, int64(1), st.FailedBatches)
	assert.Equal(t, int64(2500), st.Items)
	assert.Equal(t, int64(1), st.WorkerErrors)
	assert.NotNil(t, st.FinishedAt)
}

func TestRedisReporter_StartFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	rep := NewRedisReporter(rdb, "run-x", time.Hour, time.Second)
	assert.Error(t, rep.Start(context.Background(), rediskey.RunState{StartedAt: time.Now()}))
	assert.NoError(t, rep.Finish(context.Background(), rediskey.RunFailed, "redis down"))
}
