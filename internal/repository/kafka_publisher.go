package repository

import (
	"context"
	"time"

	"stockmood/internal/domain/models"
	"stockmood/internal/domain/repository"
	pkgkafka "stockmood/pkg/kafka"
)

// AlertPublisher emits one Kafka message per non-Normal session, keyed by
// symbol so one symbol's alerts stay ordered, written as a single batch.
type AlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewAlertPublisher creates a Kafka-backed alert publisher.
func NewAlertPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &AlertPublisher{producer: producer, topic: topic}
}

func (p *AlertPublisher) PublishAlerts(ctx context.Context, symbol string, rows []models.BehaviorRow) error {
	messages := make([]pkgkafka.Message, 0, len(rows))
	for _, row := range rows {
		if row.Behavior == models.BehaviorNormal {
			continue
		}
		messages = append(messages, pkgkafka.Message{
			Key: []byte(symbol),
			Value: map[string]interface{}{
				"symbol":     symbol,
				"date":       row.Date.Format(time.DateOnly),
				"behavior":   string(row.Behavior),
				"confidence": row.Confidence,
				"close":      row.Close,
			},
		})
	}
	if len(messages) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, messages)
}

func (p *AlertPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
