package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "DATAGEN"

// AppConfig 聚合运行时配置：默认值 → 配置文件 → 环境变量（DATAGEN_ 前缀），后者覆盖前者。
type AppConfig struct {
	TotalOrders   int    `mapstructure:"total_orders"`
	BatchSize     int    `mapstructure:"batch_size"`
	Workers       int    `mapstructure:"workers"`
	QueueCapacity int    `mapstructure:"queue_capacity"`
	Seed          uint64 `mapstructure:"seed"` // 0 表示按时间取种子
	MaxUserID     int64  `mapstructure:"max_user_id"`

	RegionFile  string `mapstructure:"region_file"`
	CatalogFile string `mapstructure:"catalog_file"`

	Sink SinkConfig `mapstructure:"sink"`

	// 状态服务监听地址，为空则不启动
	StatusAddr string      `mapstructure:"status_addr"`
	Redis      RedisConfig `mapstructure:"redis"`
	Stats      StatsConfig `mapstructure:"stats"`

	Log         LogConfig `mapstructure:"log"`
	Mode        string    `mapstructure:"mode"` // dev | prod
	ProgressBar bool      `mapstructure:"progress_bar"`
}

type SinkConfig struct {
	Driver       string   `mapstructure:"driver"` // mysql | postgres | sqlite | kafka | discard
	DSN          string   `mapstructure:"dsn"`
	AutoMigrate  bool     `mapstructure:"auto_migrate"`
	Database     string   `mapstructure:"database"`
	KafkaBrokers []string `mapstructure:"-"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

// RedisConfig Addr 为空时不记录运行状态，统计接口也不限流
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	RunTTL   time.Duration `mapstructure:"run_ttl"`
}

// StatsConfig 统计接口按客户端 IP 限流
type StatsConfig struct {
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("total_orders", 10_000_000)
	v.SetDefault("batch_size", 1000)
	v.SetDefault("workers", 4)
	v.SetDefault("queue_capacity", 20)
	v.SetDefault("seed", 0)
	v.SetDefault("max_user_id", 100_000)
	v.SetDefault("region_file", "data/level.json")
	v.SetDefault("catalog_file", "data/shop_products.json")

	v.SetDefault("sink.driver", "mysql")
	v.SetDefault("sink.dsn", "root:root@tcp(127.0.0.1:3306)/mall4cloud_order?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("sink.auto_migrate", false)
	v.SetDefault("sink.database", "mall4cloud_order")
	v.SetDefault("sink.kafka_brokers", "")
	v.SetDefault("sink.kafka_topic", "mall4cloud_order.changes")

	v.SetDefault("status_addr", ":9090")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.run_ttl", 24*time.Hour)
	v.SetDefault("stats.rate_limit", 30)
	v.SetDefault("stats.rate_window", time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.filename", "logs/datagen.log")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("mode", "dev")
	v.SetDefault("progress_bar", true)
}

// Load 读取并校验配置。configFile 为空时只用默认值和环境变量；
// 当前目录下存在 .env 时先加载它。
func Load(configFile string) (AppConfig, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return AppConfig{}, fmt.Errorf("load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return AppConfig{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	// 环境变量里是逗号分隔字符串，配置文件里可以是列表
	cfg.Sink.KafkaBrokers = splitCSV(strings.Join(v.GetStringSlice("sink.kafka_brokers"), ","))

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate 检查取值范围和驱动相关的必填项。
func (c AppConfig) Validate() error {
	var errs []error
	if c.TotalOrders <= 0 {
		errs = append(errs, fmt.Errorf("total_orders must be > 0"))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be > 0"))
	}
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be > 0"))
	}
	if c.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("queue_capacity must be >= 0"))
	}
	if c.MaxUserID <= 0 {
		errs = append(errs, fmt.Errorf("max_user_id must be > 0"))
	}
	if c.RegionFile == "" || c.CatalogFile == "" {
		errs = append(errs, fmt.Errorf("region_file and catalog_file must not be empty"))
	}

	switch c.Sink.Driver {
	case "mysql", "postgres", "sqlite":
		if c.Sink.DSN == "" {
			errs = append(errs, fmt.Errorf("sink.dsn must not be empty for driver %s", c.Sink.Driver))
		}
	case "kafka":
		if len(c.Sink.KafkaBrokers) == 0 {
			errs = append(errs, fmt.Errorf("sink.kafka_brokers must not be empty"))
		}
		if c.Sink.KafkaTopic == "" {
			errs = append(errs, fmt.Errorf("sink.kafka_topic must not be empty"))
		}
	case "discard":
	default:
		errs = append(errs, fmt.Errorf("sink.driver %q is not one of mysql, postgres, sqlite, kafka, discard", c.Sink.Driver))
	}

	if c.Redis.Addr != "" && c.Redis.RunTTL <= 0 {
		errs = append(errs, fmt.Errorf("redis.run_ttl must be > 0"))
	}
	if c.Stats.RateLimit <= 0 {
		errs = append(errs, fmt.Errorf("stats.rate_limit must be > 0"))
	}
	if c.Stats.RateWindow <= 0 {
		errs = append(errs, fmt.Errorf("stats.rate_window must be > 0"))
	}
	if c.Mode != "dev" && c.Mode != "prod" {
		errs = append(errs, fmt.Errorf("mode must be dev or prod"))
	}
	return errors.Join(errs...)
}

// SQLSink 是否写关系库，统计接口只在这种情况下可用
func (c AppConfig) SQLSink() bool {
	switch c.Sink.Driver {
	case "mysql", "postgres", "sqlite":
		return true
	}
	return false
}

// splitCSV 将逗号分隔字符串解析为字符串切片。
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
