package kafka_client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"

	"github.com/spacesedan/textflow/internal/analysis"
	"github.com/spacesedan/textflow/internal/models"
)

// fakeProducer routes delivery reports like librdkafka: to the channel given
// to Produce, or to the shared event queue when there is none. Flush reports
// whatever is still queued.
type fakeProducer struct {
	produced  []*kafka.Message
	queued    []kafka.Event
	err       error
	failKey   string
	noReports bool
}

func (f *fakeProducer) Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error {
	if f.err != nil {
		return f.err
	}
	f.produced = append(f.produced, msg)
	if f.noReports {
		return nil
	}

	report := *msg
	if string(msg.Key) == f.failKey {
		report.TopicPartition.Error = kafka.NewError(kafka.ErrMsgTimedOut, "Local: Message timed out", false)
	}
	if deliveryChan == nil {
		f.queued = append(f.queued, &report)
		return nil
	}
	deliveryChan <- &report
	return nil
}

func (f *fakeProducer) Flush(int) int {
	return len(f.queued)
}

func sampleBatch() analysis.Batch {
	return analysis.Batch{
		ID:      "key-phrases-1",
		Backend: "azure",
		Kind:    models.KindKeyPhrases,
		Results: []models.Result{
			{ID: "0", Kind: models.KindKeyPhrases, KeyPhrases: []string{"obesidad"}},
			models.Failure(models.KindKeyPhrases, "1", "InvalidDocument", "Document text is empty."),
		},
	}
}

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	msgs, err := BuildMessages(KAFKA_TOPIC_ANALYSIS_RESULTS, sampleBatch())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if string(msgs[1].Key) != "key-phrases:1" {
		t.Fatalf("unexpected key %q", msgs[1].Key)
	}
	if *msgs[0].TopicPartition.Topic != KAFKA_TOPIC_ANALYSIS_RESULTS {
		t.Fatalf("unexpected topic %q", *msgs[0].TopicPartition.Topic)
	}

	var value ResultMessage
	if err := json.Unmarshal(msgs[1].Value, &value); err != nil {
		t.Fatalf("value is not json: %v", err)
	}
	var result models.Result
	if err := json.Unmarshal(value.Result, &result); err != nil {
		t.Fatalf("result is not json: %v", err)
	}
	if value.BatchID != "key-phrases-1" || !result.Failed() {
		t.Fatalf("unexpected message %+v / %+v", value, result)
	}
}

func TestRecordWaitsForDeliveryReports(t *testing.T) {
	t.Parallel()

	producer := &fakeProducer{}
	p := &ResultsPublisher{producer: producer, topic: "results"}
	if err := p.Record(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(producer.produced) != 2 {
		t.Fatalf("expected 2 produced messages, got %d", len(producer.produced))
	}
	if len(producer.queued) != 0 {
		t.Fatalf("delivery reports left on the shared queue: %d", len(producer.queued))
	}
	if remaining := producer.Flush(0); remaining != 0 {
		t.Fatalf("flush after record should have nothing pending, got %d", remaining)
	}
}

func TestRecordReportsFailedDeliveries(t *testing.T) {
	t.Parallel()

	p := &ResultsPublisher{producer: &fakeProducer{failKey: "key-phrases:1"}, topic: "results"}
	err := p.Record(context.Background(), sampleBatch())
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Fatalf("expected one failed delivery, got %v", err)
	}

	failing := &ResultsPublisher{producer: &fakeProducer{err: errors.New("queue full")}, topic: "results"}
	if err := failing.Record(context.Background(), sampleBatch()); err == nil {
		t.Fatalf("expected produce error")
	}
}

func TestRecordStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := &ResultsPublisher{producer: &fakeProducer{noReports: true}, topic: "results"}
	if err := p.Record(ctx, sampleBatch()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
