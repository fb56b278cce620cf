// Package kafka publishes payment events to a Kafka topic.
package kafka

import (
    "context"
    "encoding/json"

    "github.com/segmentio/kafka-go"

    "github.com/arkcrm/rentledger/internal/events"
)

const topic = "payments.recorded"

type Publisher struct {
    writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
    return &Publisher{
        writer: &kafka.Writer{
            Addr:     kafka.TCP(brokers...),
            Topic:    topic,
            Balancer: &kafka.LeastBytes{},
        },
    }
}

// Publish writes the event keyed by resident so per-resident ordering is
// preserved across partitions.
func (p *Publisher) Publish(ctx context.Context, ev events.PaymentRecorded) error {
    data, err := json.Marshal(ev)
    if err != nil {
        return err
    }
    return p.writer.WriteMessages(ctx, kafka.Message{
        Key:   []byte(ev.ResidentID.String()),
        Value: data,
    })
}

func (p *Publisher) Close() error { return p.writer.Close() }
