package sink

import (
	"fmt"

	"go.uber.org/zap"
)

type Options struct {
	Driver       string
	DSN          string
	AutoMigrate  bool
	Database     string
	KafkaBrokers []string
	KafkaTopic   string
}

// Open 按 Driver 构造 Sink。SQL 驱动在这里就会校验 DSN 并按需建表。
func Open(opts Options, lg *zap.Logger) (Sink, error) {
	switch opts.Driver {
	case "mysql", "postgres", "sqlite":
		db, err := OpenDB(opts.Driver, opts.DSN, lg)
		if err != nil {
			return nil, err
		}
		s, err := NewGorm(db)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			if err := s.Migrate(); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		return s, nil
	case "kafka":
		if len(opts.KafkaBrokers) == 0 || opts.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka sink needs brokers and topic")
		}
		return NewKafka(opts.KafkaBrokers, opts.KafkaTopic, opts.Database), nil
	case "discard":
		return &Discard{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
