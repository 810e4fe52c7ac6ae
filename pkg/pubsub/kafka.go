package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"

	pkglog "github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

const (
	kafkaPollInterval   = 500 * time.Millisecond
	kafkaAssignTimeout  = 15 * time.Second
	kafkaWatermarkQuery = 5000 // ms
)

// KafkaPubSub carries events over Kafka topics. Each instance consumes
// with its own group id so every instance sees every event, matching the
// Redis fan-out.
type KafkaPubSub struct {
	producer     *kafka.Producer
	producerDone chan struct{}
	cfg          KafkaConfig
	instanceID   string
	subs         subscriptionSet
}

// NewKafkaPubSub creates the producer and the products topic.
func NewKafkaPubSub(cfg KafkaConfig) (*KafkaPubSub, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka pubsub: create producer: %w", err)
	}

	k := &KafkaPubSub{
		producer:     producer,
		producerDone: make(chan struct{}),
		cfg:          cfg,
		instanceID:   uuid.NewString(),
	}
	go k.watchProducer()

	if err := k.createTopic(ChannelProducts); err != nil {
		l := pkglog.L()
		l.Warn().Err(err).Str(pkglog.FieldChannel, ChannelProducts).Msg("kafka topic setup failed, relying on broker auto-create")
	}
	return k, nil
}

// watchProducer logs client-level producer errors. Delivery reports go to
// the per-message channels passed by Publish.
func (k *KafkaPubSub) watchProducer() {
	defer close(k.producerDone)
	for e := range k.producer.Events() {
		if kerr, ok := e.(kafka.Error); ok {
			l := pkglog.L()
			l.Error().Err(kerr).Bool("fatal", kerr.IsFatal()).Msg("kafka producer error")
		}
	}
}

func (k *KafkaPubSub) createTopic(channel string) error {
	topic, err := channelToTopic(channel)
	if err != nil {
		return err
	}

	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return err
	}
	defer admin.Close()

	partitions := k.cfg.Partitions
	if partitions <= 0 {
		partitions = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return err
	}
	for _, r := range results {
		if code := r.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("create topic %s: %s", r.Topic, r.Error.String())
		}
	}
	return nil
}

// Publish produces event and waits for the broker's delivery report.
func (k *KafkaPubSub) Publish(ctx context.Context, channel string, event *Event) error {
	topic, err := channelToTopic(channel)
	if err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka pubsub: encode %s event: %w", event.Type, err)
	}

	report := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Key),
		Value:          data,
	}, report)
	if err != nil {
		return fmt.Errorf("kafka pubsub: produce to %s: %w", topic, err)
	}

	select {
	case e := <-report:
		if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
			return fmt.Errorf("kafka pubsub: deliver to %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe starts a consumer on channel's topic. It returns once the
// group has been assigned partitions, each pinned to its high watermark,
// so every event published after Subscribe returns is delivered. If no
// assignment arrives within kafkaAssignTimeout it logs and returns anyway.
func (k *KafkaPubSub) Subscribe(ctx context.Context, channel string) (<-chan *Event, error) {
	topic, err := channelToTopic(channel)
	if err != nil {
		return nil, err
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  k.cfg.Brokers,
		"group.id":           groupID(k.cfg.GroupID, topic, k.instanceID),
		"auto.offset.reset":  "latest",
		"enable.auto.commit": false,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka pubsub: create consumer: %w", err)
	}
	assigned := make(chan struct{})
	var once sync.Once
	rebalance := func(c *kafka.Consumer, ev kafka.Event) error {
		switch e := ev.(type) {
		case kafka.AssignedPartitions:
			pinned := pinToHighWatermark(e.Partitions, func(topic string, partition int32) (int64, error) {
				_, high, err := c.QueryWatermarkOffsets(topic, partition, kafkaWatermarkQuery)
				return high, err
			})
			if err := c.Assign(pinned); err != nil {
				return err
			}
			once.Do(func() { close(assigned) })
		case kafka.RevokedPartitions:
			return c.Unassign()
		}
		return nil
	}

	if err := consumer.Subscribe(topic, rebalance); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("kafka pubsub: subscribe to %s: %w", topic, err)
	}

	subCtx, sub := newSubscription(ctx)
	out := make(chan *Event, eventBuffer)

	go func() {
		defer close(sub.done)
		defer close(out)
		defer consumer.Close()

		l := pkglog.L()
		for subCtx.Err() == nil {
			msg, err := consumer.ReadMessage(kafkaPollInterval)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) {
					if kerr.Code() == kafka.ErrTimedOut {
						continue
					}
					l.Error().Err(kerr).Bool("fatal", kerr.IsFatal()).Str(pkglog.FieldChannel, channel).Msg("kafka consumer error")
					if kerr.IsFatal() {
						return
					}
				}
				continue
			}
			if !forward(subCtx, out, channel, msg.Value) {
				return
			}
		}
	}()

	l := pkglog.Ctx(ctx)
	select {
	case <-assigned:
	case <-ctx.Done():
		sub.stop()
		return nil, ctx.Err()
	case <-time.After(kafkaAssignTimeout):
		l.Warn().Str(pkglog.FieldChannel, channel).Msg("kafka partitions not assigned yet, early events may be missed")
	}

	k.subs.replace(channel, sub)
	return out, nil
}

// pinToHighWatermark sets each partition's start offset to its current
// high watermark. Partitions whose watermark cannot be read start from
// kafka.OffsetEnd.
func pinToHighWatermark(tps []kafka.TopicPartition, high func(topic string, partition int32) (int64, error)) []kafka.TopicPartition {
	pinned := make([]kafka.TopicPartition, len(tps))
	for i, tp := range tps {
		pinned[i] = tp
		pinned[i].Offset = kafka.OffsetEnd
		if tp.Topic == nil {
			continue
		}
		if h, err := high(*tp.Topic, tp.Partition); err == nil {
			pinned[i].Offset = kafka.Offset(h)
		}
	}
	return pinned
}

// Unsubscribe stops the consumer on channel, if any.
func (k *KafkaPubSub) Unsubscribe(ctx context.Context, channel string) error {
	k.subs.remove(channel)
	return nil
}

// Close stops every consumer, then flushes and closes the producer.
func (k *KafkaPubSub) Close() error {
	k.subs.stopAll()

	if left := k.producer.Flush(5000); left > 0 {
		l := pkglog.L()
		l.Warn().Int("pending", left).Msg("kafka producer closed with undelivered events")
	}
	k.producer.Close()
	<-k.producerDone
	return nil
}

// groupID builds a consumer group unique to this instance, restricted to
// the characters Kafka accepts.
func groupID(base, topic, instance string) string {
	if base == "" {
		base = "market"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, base+"."+topic+"."+instance)
}
