package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"order_datagen/internal/model"

	"github.com/segmentio/kafka-go"
)

// ChangeEvent 每行一条的变更事件，字段对齐常见 CDC 格式，下游可直接按表回放。
type ChangeEvent struct {
	Op       string `json:"op"` // 只有 c（insert）
	Database string `json:"database"`
	Table    string `json:"table"`
	PKName   string `json:"pk_name"`
	PKValue  int64  `json:"pk_value"`
	TsMs     int64  `json:"ts_ms"`
	Data     any    `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 把批次写成变更事件，每个 session 一个 writer。不提供事务语义。
type KafkaSink struct {
	brokers  []string
	topic    string
	database string

	newWriter func() messageWriter
	dial      func(ctx context.Context) error
}

func NewKafka(brokers []string, topic, database string) *KafkaSink {
	s := &KafkaSink{brokers: brokers, topic: topic, database: database}
	s.newWriter = func() messageWriter {
		// 全副本确认，不重试：失败的批次与 SQL 一样记录后丢弃
		return &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  1,
			BatchSize:    1000,
			BatchBytes:   16 << 20,
			WriteTimeout: 30 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		}
	}
	s.dial = func(ctx context.Context) error {
		conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
	return s
}

// Session kafka.Writer 是惰性连接的，先拨一次 broker 确认可达。
func (s *KafkaSink) Session(ctx context.Context, fn func(Writer) error) error {
	if err := s.dial(ctx); err != nil {
		return fmt.Errorf("%w: kafka %v: %v", ErrConnect, s.brokers, err)
	}
	w := s.newWriter()
	defer w.Close()
	return fn(&kafkaWriter{w: w, database: s.database})
}

func (s *KafkaSink) Close() error { return nil }

type kafkaWriter struct {
	w        messageWriter
	database string
}

func (k *kafkaWriter) WriteBatch(ctx context.Context, b *model.Batch) error {
	msgs, err := changeMessages(k.database, b, time.Now())
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return k.w.WriteMessages(ctx, msgs...)
}

// changeMessages 按 order_addr → order → order_item 的顺序生成消息，key 为主键值。
func changeMessages(database string, b *model.Batch, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, b.Rows())
	ts := now.UnixMilli()

	add := func(table, pkName string, pk int64, row any) error {
		v, err := json.Marshal(ChangeEvent{
			Op:       "c",
			Database: database,
			Table:    table,
			PKName:   pkName,
			PKValue:  pk,
			TsMs:     ts,
			Data:     row,
		})
		if err != nil {
			return fmt.Errorf("marshal %s %d: %w", table, pk, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(table + ":" + strconv.FormatInt(pk, 10)),
			Value: v,
		})
		return nil
	}

	for _, a := range b.Addrs {
		if err := add(a.TableName(), "order_addr_id", a.OrderAddrID, a); err != nil {
			return nil, err
		}
	}
	for _, o := range b.Orders {
		if err := add(o.TableName(), "order_id", o.OrderID, o); err != nil {
			return nil, err
		}
	}
	for _, it := range b.Items {
		if err := add(it.TableName(), "order_item_id", it.OrderItemID, it); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}
