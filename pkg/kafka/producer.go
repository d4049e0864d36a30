package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Config holds the writer settings. Zero values fall back to defaults
// suitable for low-volume alert publishing.
type Config struct {
	Brokers      []string
	RequiredAcks int    // -1 waits for all replicas
	Compression  string // gzip, snappy, lz4, zstd
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchBytes   int
	Linger       time.Duration
	Async        bool
	HashByKey    bool // hash balancer keeps one symbol on one partition
}

// Message is a single record to publish. Value is JSON-encoded unless it
// is already a byte slice.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer wraps a kafka-go writer with publish metrics.
type Producer struct {
	writer      *kafka.Writer
	compression string
}

func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = -1
	}
	if cfg.Compression == "" {
		cfg.Compression = "gzip"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchBytes <= 0 {
		cfg.BatchBytes = 1 << 20
	}
	if cfg.Linger <= 0 {
		cfg.Linger = time.Second
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}

	registerProducerMetrics()
	return &Producer{
		compression: cfg.Compression,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compressionCodec(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.Linger,
			Async:        cfg.Async,
		},
	}, nil
}

// PublishBatch writes all messages to topic in one call. An empty slice
// is a no-op.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	records := make([]kafka.Message, 0, len(messages))
	var payloadBytes int64
	for _, m := range messages {
		value, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		records = append(records, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: value,
			Time:  start,
		})
		payloadBytes += int64(len(value))
	}

	err := p.writer.WriteMessages(ctx, records...)
	recordPublish(topic, p.compression, len(records), payloadBytes, time.Since(start), err)
	return err
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(v interface{}) ([]byte, error) {
	switch value := v.(type) {
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return data, nil
	}
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	metricsOnce     sync.Once
	publishTotal    *prometheus.CounterVec
	publishErrors   *prometheus.CounterVec
	publishBytes    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
)

func registerProducerMetrics() {
	metricsOnce.Do(func() {
		publishTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmood_kafka_producer_messages_total",
			Help: "Messages published to Kafka",
		}, []string{"topic", "compression", "result"})
		publishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmood_kafka_producer_errors_total",
			Help: "Producer errors",
		}, []string{"topic"})
		publishBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmood_kafka_producer_bytes_total",
			Help: "Payload bytes published",
		}, []string{"topic", "compression"})
		publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockmood_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

func recordPublish(topic, compression string, count int, bytes int64, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		publishErrors.WithLabelValues(topic).Inc()
	}
	publishTotal.WithLabelValues(topic, compression, result).Add(float64(count))
	publishBytes.WithLabelValues(topic, compression).Add(float64(bytes))
	publishDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}
