package kafka

import (
	"context"

	"github.com/IBM/sarama"
)

// Message is the broker-agnostic view handed to consumer handlers. The
// notification worker only needs the topic, the payload, and the headers, so
// the sarama record types stay inside this package.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
}

type MessageHandler interface {
	Handle(ctx context.Context, msg Message) error
}

// Consumer drives a sarama consumer group and feeds every claimed record to
// the handler. A handler error leaves the record unmarked so the group
// redelivers it; handlers that must never wedge the stream swallow their own
// failures and return nil.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler) (*Consumer, error) {
	if cfg == nil {
		cfg = sarama.NewConfig()
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Version = sarama.V2_5_0_0
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, handler: handler}, nil
}

// Run blocks until the context is cancelled, rejoining the group after every
// rebalance.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	claims := groupClaims{handler: c.handler}
	for ctx.Err() == nil {
		if err := c.group.Consume(ctx, topics, claims); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupClaims struct {
	handler MessageHandler
}

func (groupClaims) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (groupClaims) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (g groupClaims) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for record := range claim.Messages() {
		msg := Message{
			Topic:   record.Topic,
			Key:     string(record.Key),
			Value:   record.Value,
			Headers: make(map[string]string, len(record.Headers)),
		}
		for _, h := range record.Headers {
			msg.Headers[string(h.Key)] = string(h.Value)
		}
		if err := g.handler.Handle(sess.Context(), msg); err != nil {
			continue
		}
		sess.MarkMessage(record, "")
	}
	return nil
}
