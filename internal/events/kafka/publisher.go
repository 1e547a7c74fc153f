package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ledgerbank/backend/internal/events"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/segmentio/kafka-go"
)

// batchTimeout caps how long an event waits for batch peers before it is written.
const batchTimeout = 10 * time.Millisecond

type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: batchTimeout,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// Publish writes the event keyed by its source account so all movements of
// one account land on the same partition.
func (p *Publisher) Publish(ctx context.Context, event models.TransactionCompleted) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func encode(event models.TransactionCompleted) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	var key int64
	switch {
	case event.FromAccount != nil:
		key = *event.FromAccount
	case event.ToAccount != nil:
		key = *event.ToAccount
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(key, 10)),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("transaction_completed")},
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}, nil
}

var _ events.Publisher = (*Publisher)(nil)
