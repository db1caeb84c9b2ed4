package sink

import (
	"context"
	"fmt"
	"time"

	"order_datagen/internal/model"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 单条语句的占位符上限
const (
	maxParamsDefault = 65535
	maxParamsSQLite  = 32766
)

// OpenDB 按驱动名打开 gorm 连接池，SQL 日志走 zap。
func OpenDB(driver, dsn string, lg *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(lg),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return db, nil
}

// newGormLogger 批量插入的参数动辄上万个，只记 warn 以上且不展开参数。
func newGormLogger(lg *zap.Logger) logger.Interface {
	std, err := zap.NewStdLogAt(lg.Named("gorm"), zapcore.WarnLevel)
	if err != nil {
		std = zap.NewStdLog(lg.Named("gorm"))
	}
	return logger.New(std, logger.Config{
		SlowThreshold:             10 * time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})
}

// GormSink MySQL / Postgres / SQLite 共用的实现。
type GormSink struct {
	db     *gorm.DB
	chunks chunkSizes
}

// chunkSizes 每张表单条 INSERT 最多携带的行数 = 占位符上限 / 列数
type chunkSizes struct {
	addr, order, item int
}

func NewGorm(db *gorm.DB) (*GormSink, error) {
	maxParams := maxParamsDefault
	if db.Dialector.Name() == "sqlite" {
		maxParams = maxParamsSQLite
	}

	var chunks chunkSizes
	var err error
	if chunks.addr, err = chunkFor(db, &model.OrderAddr{}, maxParams); err != nil {
		return nil, err
	}
	if chunks.order, err = chunkFor(db, &model.Order{}, maxParams); err != nil {
		return nil, err
	}
	if chunks.item, err = chunkFor(db, &model.OrderItem{}, maxParams); err != nil {
		return nil, err
	}
	return &GormSink{db: db, chunks: chunks}, nil
}

func chunkFor(db *gorm.DB, v any, maxParams int) (int, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(v); err != nil {
		return 0, fmt.Errorf("parse schema %T: %w", v, err)
	}
	return max(1, maxParams/len(stmt.Schema.DBNames)), nil
}

// DB 供统计查询复用同一个连接池
func (s *GormSink) DB() *gorm.DB { return s.db }

// Migrate 建表，按写入顺序创建。
func (s *GormSink) Migrate() error {
	return s.db.AutoMigrate(&model.OrderAddr{}, &model.Order{}, &model.OrderItem{})
}

// Session 从连接池取出一条连接独占到 fn 结束。
func (s *GormSink) Session(ctx context.Context, fn func(Writer) error) error {
	started := false
	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		started = true
		return fn(&gormWriter{db: conn, chunks: s.chunks})
	})
	if err != nil && !started {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return err
}

func (s *GormSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormWriter struct {
	db     *gorm.DB
	chunks chunkSizes
}

func (w *gormWriter) WriteBatch(ctx context.Context, b *model.Batch) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertRows(tx, b.Addrs, w.chunks.addr); err != nil {
			return fmt.Errorf("insert order_addr: %w", err)
		}
		if err := insertRows(tx, b.Orders, w.chunks.order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := insertRows(tx, b.Items, w.chunks.item); err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
		return nil
	})
}

// insertRows 一条多值 INSERT；超过占位符上限时在同一事务内分段。空表跳过。
func insertRows[T any](tx *gorm.DB, rows []T, chunk int) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(&rows, chunk).Error
}
