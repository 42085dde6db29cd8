package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/efreitasn/simmatch/internal/domain"
)

// NewProducer creates a SyncProducer that waits for all in-sync replicas,
// retrying the connection until attempts run out or ctx is done.
func NewProducer(ctx context.Context, brokers []string, attempts int, backoff time.Duration) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Partitioner = sarama.NewHashPartitioner

	var prod sarama.SyncProducer
	var err error
	for i := 0; i < attempts; i++ {
		prod, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			return prod, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("failed to start producer after %d attempts: %w", attempts, err)
}

// KafkaSink publishes order and trade updates to Kafka, keyed by account so
// one account's events land on one partition in order. Callbacks only queue
// the message; a single publisher goroutine sends it, so a slow broker never
// stalls matching. Messages arriving while the buffer is full are dropped and
// logged.
type KafkaSink struct {
	producer   sarama.SyncProducer
	orderTopic string
	tradeTopic string
	now        func() time.Time
	logger     *slog.Logger

	messages chan *sarama.ProducerMessage
	done     chan struct{}
}

// NewKafkaSink creates a sink publishing to the given topics and starts its
// publisher. buffer bounds the messages waiting for the broker.
func NewKafkaSink(producer sarama.SyncProducer, orderTopic, tradeTopic string, buffer int, logger *slog.Logger) *KafkaSink {
	s := &KafkaSink{
		producer:   producer,
		orderTopic: orderTopic,
		tradeTopic: tradeTopic,
		now:        time.Now,
		logger:     logger,
		messages:   make(chan *sarama.ProducerMessage, buffer),
		done:       make(chan struct{}),
	}
	go s.publish()
	return s
}

// OrderUpdated queues an order.updated event.
func (s *KafkaSink) OrderUpdated(o domain.Order) {
	s.enqueue(s.orderTopic, o.AccountID, OrderEnvelope(o, s.now()))
}

// TradeUpdated queues a trade.executed event.
func (s *KafkaSink) TradeUpdated(t domain.Trade) {
	s.enqueue(s.tradeTopic, t.AccountID, TradeEnvelope(t, s.now()))
}

func (s *KafkaSink) enqueue(topic, key string, e Envelope) {
	value, err := Marshal(e)
	if err != nil {
		s.logger.Error("encode event", "event", e.Event, "error", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic:    topic,
		Key:      sarama.StringEncoder(key),
		Value:    sarama.ByteEncoder(value),
		Metadata: e.Event,
	}
	select {
	case s.messages <- msg:
	default:
		s.logger.Warn("kafka buffer full, event dropped", "topic", topic, "event", e.Event, "account_id", key)
	}
}

func (s *KafkaSink) publish() {
	defer close(s.done)
	for msg := range s.messages {
		partition, offset, err := s.producer.SendMessage(msg)
		if err != nil {
			s.logger.Error("publish event", "topic", msg.Topic, "event", msg.Metadata, "error", err)
			continue
		}
		s.logger.Debug("event published", "topic", msg.Topic, "event", msg.Metadata, "partition", partition, "offset", offset)
	}
}

// Close flushes queued messages and closes the producer. The sink must not
// receive callbacks afterwards.
func (s *KafkaSink) Close() error {
	close(s.messages)
	<-s.done
	return s.producer.Close()
}
