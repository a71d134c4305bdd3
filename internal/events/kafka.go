package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shophub-be/internal/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
}

// publishBatchTimeout caps how long a single event waits for a batch to
// fill. Publish runs on the request path.
const publishBatchTimeout = 10 * time.Millisecond

// NewKafkaPublisher returns a publisher writing to the given brokers. The
// topic is carried on each message so one writer serves every topic.
func NewKafkaPublisher(brokers []string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           publishBatchTimeout,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

// New picks the kafka publisher when brokers are configured.
func New(brokers []string) Publisher {
	if len(brokers) == 0 {
		logger.L().Info("no kafka brokers configured, order events disabled")
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers)
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key), // same order id lands on the same partition
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		logger.FromCtx(ctx).Error("failed to write message to kafka",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}
