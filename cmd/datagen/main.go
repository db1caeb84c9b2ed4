package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order_datagen/internal/config"
	"order_datagen/internal/idgen"
	"order_datagen/internal/logger"
	"order_datagen/internal/metrics"
	"order_datagen/internal/progress"
	"order_datagen/internal/queue"
	"order_datagen/internal/refdata"
	"order_datagen/internal/report"
	"order_datagen/internal/router"
	"order_datagen/internal/sink"
	"order_datagen/internal/synth"
	rediskey "order_datagen/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var cfn string
	flag.StringVar(&cfn, "conf", "", "配置文件路径（可选，未指定时只读环境变量）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(cfn)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// 2. 初始化日志
	if err := logger.Init(cfg.Log, cfg.Mode); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zap.L().Sync()

	if err := run(cfg); err != nil {
		zap.L().Error("datagen failed", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run(cfg config.AppConfig) error {
	// 信号只停止入队，已入队的批次照常写完
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 加载基础数据
	store, err := refdata.Load(cfg.RegionFile, cfg.CatalogFile)
	if err != nil {
		return err
	}

	// 4. 打开存储
	sk, err := sink.Open(sink.Options{
		Driver:       cfg.Sink.Driver,
		DSN:          cfg.Sink.DSN,
		AutoMigrate:  cfg.Sink.AutoMigrate,
		Database:     cfg.Sink.Database,
		KafkaBrokers: cfg.Sink.KafkaBrokers,
		KafkaTopic:   cfg.Sink.KafkaTopic,
	}, zap.L())
	if err != nil {
		return err
	}
	defer sk.Close()

	runID := uuid.NewString()
	start := time.Now()

	// 5. 观察者：进度、指标、进度条、Redis 运行状态
	tracker := progress.NewTracker(runID, cfg.TotalOrders, cfg.Workers)
	reg := metrics.NewRegistry(cfg.Workers)
	observers := []queue.Observer{tracker, reg}

	var bar *progress.Bar
	if cfg.ProgressBar {
		bar = progress.NewBar(cfg.TotalOrders, os.Stderr)
		observers = append(observers, bar)
	}

	var rdb *rd.Client
	var reporter *progress.RedisReporter
	if cfg.Redis.Addr != "" {
		rdb = rd.NewClient(&rd.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		reporter = progress.NewRedisReporter(rdb, runID, cfg.Redis.RunTTL, time.Second)
		err := reporter.Start(ctx, rediskey.RunState{
			Sink:      cfg.Sink.Driver,
			Total:     int64(cfg.TotalOrders),
			Workers:   int64(cfg.Workers),
			StartedAt: start,
		})
		if err != nil {
			zap.L().Warn("redis run state disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			observers = append(observers, reporter)
		}
	}

	// 6. 状态服务
	srv := startStatusServer(cfg, sk, router.Deps{
		Tracker:    tracker,
		Metrics:    reg,
		Redis:      rdb,
		RateLimit:  cfg.Stats.RateLimit,
		RateWindow: cfg.Stats.RateWindow,
	})

	// 7. 生成
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(start.UnixNano())
	}
	ids := idgen.NewAllocator(start)
	newSynth := func(worker int) queue.BatchSynthesizer {
		rng := rand.New(rand.NewPCG(seed, uint64(worker)))
		return synth.New(rng, store, ids, synth.WithMaxUserID(cfg.MaxUserID))
	}

	zap.L().Info("run start",
		zap.String("run_id", runID),
		zap.Int("total_orders", cfg.TotalOrders),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Int("workers", cfg.Workers),
		zap.Int("queue_capacity", cfg.QueueCapacity),
		zap.String("sink", cfg.Sink.Driver),
		zap.Uint64("seed", seed))

	pool := queue.NewPool(queue.Config{
		Total:         cfg.TotalOrders,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
		QueueCapacity: cfg.QueueCapacity,
	}, sk, newSynth, observers...)
	sum, runErr := pool.Run(ctx, runID)

	if bar != nil {
		_ = bar.Close()
	}

	status, reason := rediskey.RunFinished, ""
	switch {
	case errors.Is(runErr, queue.ErrNoWorkers):
		status = rediskey.RunFailed
	case errors.Is(runErr, context.Canceled):
		status = rediskey.RunInterrupted
	}
	if runErr != nil {
		reason = runErr.Error()
	}
	tracker.Finish(status)
	if reporter != nil {
		if err := reporter.Finish(context.Background(), status, reason); err != nil {
			zap.L().Warn("report run finish failed", zap.Error(err))
		}
	}

	zap.L().Info("run summary",
		zap.String("run_id", sum.RunID),
		zap.String("status", status),
		zap.Int64("enqueued", sum.Enqueued),
		zap.Int64("abandoned", sum.Abandoned),
		zap.Int64("batches", sum.Batches),
		zap.Int64("failed_batches", sum.FailedBatches),
		zap.Int64("orders", sum.Orders),
		zap.Int64("items", sum.Items),
		zap.Int("worker_errors", sum.WorkerErrors),
		zap.Duration("elapsed", sum.Elapsed))

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func startStatusServer(cfg config.AppConfig, sk sink.Sink, deps router.Deps) *http.Server {
	if cfg.StatusAddr == "" {
		return nil
	}
	if cfg.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	if gs, ok := sk.(*sink.GormSink); ok && cfg.SQLSink() {
		deps.Stats = report.NewRepository(gs.DB())
	} else {
		zap.L().Info("stats api disabled", zap.String("sink", cfg.Sink.Driver))
	}

	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery(true))
	router.Setup(r, deps)

	srv := &http.Server{Addr: cfg.StatusAddr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("status server", zap.String("addr", cfg.StatusAddr), zap.Error(err))
		}
	}()
	zap.L().Info("status server listening", zap.String("addr", cfg.StatusAddr))
	return srv
}
