package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/textflow/internal/analysis"
)

// messageProducer is the part of *kafka.Producer the publisher uses.
type messageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
}

// ResultMessage is the JSON value published for every document result.
type ResultMessage struct {
	BatchID string          `json:"batch_id"`
	Backend string          `json:"backend"`
	Kind    string          `json:"kind"`
	Result  json.RawMessage `json:"result"`
}

// ResultsPublisher publishes batch results, one message per document.
type ResultsPublisher struct {
	producer messageProducer
	closer   func()
	topic    string
}

func NewResultsPublisher(cfg KafkaConfig) (*ResultsPublisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
		"message.timeout.ms":  DELIVERY_TIMEOUT_MS,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	go logEvents(p.Events())

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &ResultsPublisher{producer: p, closer: p.Close, topic: cfg.Topic}, nil
}

func (p *ResultsPublisher) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	if p.closer != nil {
		p.closer()
	}
}

// Record produces one message per result and waits for a delivery report
// for each of them on a channel owned by this call.
func (p *ResultsPublisher) Record(ctx context.Context, batch analysis.Batch) error {
	msgs, err := BuildMessages(p.topic, batch)
	if err != nil {
		return err
	}

	deliveries := make(chan kafka.Event, len(msgs))
	produced := 0
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.producer.Produce(msg, deliveries); err != nil {
			return fmt.Errorf("[KafkaClient] failed to produce result %s: %w", msg.Key, err)
		}
		produced++
	}

	failed := 0
	for received := 0; received < produced; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-deliveries:
			m, ok := ev.(*kafka.Message)
			if !ok {
				continue
			}
			received++
			if m.TopicPartition.Error != nil {
				failed++
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(m.Key)),
					slog.String("error", m.TopicPartition.Error.Error()))
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("[KafkaClient] %d of %d result messages not delivered", failed, produced)
	}

	slog.Info("[KafkaClient] Published batch results",
		slog.String("topic", p.topic),
		slog.String("batch_id", batch.ID),
		slog.Int("count", produced))
	return nil
}

// logEvents drains the producer's shared event channel, which carries
// client level errors.
func logEvents(events <-chan kafka.Event) {
	for ev := range events {
		switch e := ev.(type) {
		case kafka.Error:
			slog.Error("[KafkaClient] Producer error",
				slog.String("code", e.Code().String()),
				slog.String("error", e.Error()))
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(e.Key)),
					slog.String("error", e.TopicPartition.Error.Error()))
			}
		}
	}
}

// BuildMessages keys each message as "<kind>:<document id>" so results for
// one document land on one partition.
func BuildMessages(topic string, batch analysis.Batch) ([]*kafka.Message, error) {
	msgs := make([]*kafka.Message, 0, len(batch.Results))
	for _, r := range batch.Results {
		result, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("[KafkaClient] failed to encode result %s: %w", r.ID, err)
		}
		value, err := json.Marshal(ResultMessage{
			BatchID: batch.ID,
			Backend: batch.Backend,
			Kind:    string(batch.Kind),
			Result:  result,
		})
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(string(batch.Kind) + ":" + r.ID),
			Value:          value,
		})
	}
	return msgs, nil
}
