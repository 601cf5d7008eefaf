package eventbus

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/eventbus"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const defaultTopicPrefix = "codepay.events"

// KafkaConfig configures the Kafka driver.
type KafkaConfig struct {
	GroupID          string
	TopicPrefix      string
	DLQRetryInterval time.Duration
	DLQBatchSize     int
	SASLUsername     string
	SASLPassword     string
	TLSEnabled       bool
}

// DefaultKafkaConfig returns the driver defaults.
func DefaultKafkaConfig() *KafkaConfig {
	return &KafkaConfig{
		GroupID:          "codepay",
		TopicPrefix:      defaultTopicPrefix,
		DLQRetryInterval: 5 * time.Minute,
		DLQBatchSize:     10,
	}
}

// KafkaBus publishes each event type to its own topic, "<prefix>.<type>".
// Failed deliveries go to "<prefix>.dlq.<type>" and are periodically
// republished.
type KafkaBus struct {
	brokers  []string
	writer   *kafka.Writer
	dialer   *kafka.Dialer
	config   *KafkaConfig
	registry map[string]func() events.Event
	logger   *slog.Logger

	handlersMtx sync.RWMutex
	handlers    map[string][]eventbus.HandlerFunc

	readersMtx sync.Mutex
	readers    map[string]*kafka.Reader

	topicsMtx sync.Mutex
	topics    map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka connects to the comma-separated brokers list.
func NewWithKafka(brokers string, logger *slog.Logger, config *KafkaConfig) (*KafkaBus, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka event bus: brokers are required")
	}
	if config == nil {
		config = DefaultKafkaConfig()
	}
	if config.GroupID == "" {
		config.GroupID = "codepay"
	}
	if strings.TrimSpace(config.TopicPrefix) == "" {
		config.TopicPrefix = defaultTopicPrefix
	}
	if config.DLQBatchSize <= 0 {
		config.DLQBatchSize = 10
	}
	if config.DLQRetryInterval <= 0 {
		config.DLQRetryInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer, transport, err := newKafkaDialer(config)
	if err != nil {
		return nil, err
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}
	if transport != nil {
		writer.Transport = transport
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaBus{
		brokers:  parsed,
		writer:   writer,
		dialer:   dialer,
		config:   config,
		registry: events.Registry,
		logger:   logger.With("bus", "kafka"),
		handlers: make(map[string][]eventbus.HandlerFunc),
		readers:  make(map[string]*kafka.Reader),
		topics:   make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := bus.ping(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	bus.startDLQRetryWorker()

	bus.logger.Info("kafka event bus initialized",
		"group_id", config.GroupID,
		"brokers", parsed,
		"tls_enabled", dialer.TLS != nil,
		"sasl_enabled", dialer.SASLMechanism != nil,
	)
	return bus, nil
}

// Close stops consumers and flushes the writer.
func (b *KafkaBus) Close() error {
	b.cancel()
	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()
	b.wg.Wait()
	return b.writer.Close()
}

// Register adds handler for eventType and starts its topic reader on first use.
func (b *KafkaBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()
	b.ensureConsumer(eventType)
}

// Emit writes the event to its topic, keyed by type.
func (b *KafkaBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}
	topic := topicNameFor(b.config.TopicPrefix, event.Type())
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.Type()),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	return conn.Close()
}

func (b *KafkaBus) ensureConsumer(eventType string) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()
	if _, ok := b.readers[eventType]; ok {
		return
	}

	topic := topicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("kafka ensure topic error", "error", err, "event_type", eventType)
		return
	}
	reader := b.newReader(b.config.GroupID, topic, time.Second)
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(eventType, reader)
	}()
}

func (b *KafkaBus) newReader(group, topic string, maxWait time.Duration) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     group,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxWait,
		Dialer:      b.dialer,
	})
}

func (b *KafkaBus) consumeLoop(eventType string, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(b.ctx)
		if err != nil {
			if b.ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if err := b.process(eventType, msg); err != nil {
			// leave uncommitted so the message is redelivered
			b.logger.Error("kafka message processing failed; will retry", "error", err, "offset", msg.Offset)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err := reader.CommitMessages(b.ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// process returns an error only when the message could not be parked in the DLQ.
func (b *KafkaBus) process(eventType string, msg kafka.Message) error {
	typ, evt, err := decode(msg.Value, b.registry)
	if err != nil {
		b.logger.Error("dropping undecodable message", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return nil
	}
	if typ != eventType {
		b.logger.Warn("envelope type mismatch for topic", "expected", eventType, "actual", typ)
	}

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[typ]...)
	b.handlersMtx.RUnlock()

	failed := false
	for _, h := range handlers {
		if err := safeCall(b.ctx, h, evt); err != nil {
			failed = true
			b.logger.Error("handler error", "error", err, "event_type", typ, "offset", msg.Offset)
		}
	}
	if !failed {
		return nil
	}
	return b.publishToDLQ(typ, msg.Value)
}

func safeCall(ctx context.Context, h eventbus.HandlerFunc, evt events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, evt)
}

func (b *KafkaBus) publishToDLQ(eventType string, raw []byte) error {
	topic := dlqTopicNameFor(b.config.TopicPrefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(b.ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(eventType),
		Value: raw,
		Time:  time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", topic)
	return nil
}

func (b *KafkaBus) startDLQRetryWorker() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.config.DLQRetryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-b.ctx.Done():
				return
			case <-ticker.C:
				b.handlersMtx.RLock()
				types := make([]string, 0, len(b.handlers))
				for t := range b.handlers {
					types = append(types, t)
				}
				b.handlersMtx.RUnlock()
				for _, t := range types {
					b.retryDLQ(t)
				}
			}
		}
	}()
}

// retryDLQ moves up to DLQBatchSize parked messages back onto the main topic.
func (b *KafkaBus) retryDLQ(eventType string) {
	reader := b.newReader(b.config.GroupID+"-dlq-retry", dlqTopicNameFor(b.config.TopicPrefix, eventType), 250*time.Millisecond)
	defer func() { _ = reader.Close() }()

	for i := 0; i < b.config.DLQBatchSize; i++ {
		fetchCtx, cancel := context.WithTimeout(b.ctx, 500*time.Millisecond)
		msg, err := reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			return
		}
		if err := b.writer.WriteMessages(b.ctx, kafka.Message{
			Topic: topicNameFor(b.config.TopicPrefix, eventType),
			Key:   []byte(eventType),
			Value: msg.Value,
			Time:  time.Now(),
		}); err != nil {
			b.logger.Error("failed to republish DLQ message", "error", err, "event_type", eventType)
			return
		}
		_ = reader.CommitMessages(b.ctx, msg)
	}
}

func (b *KafkaBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

func newKafkaDialer(config *KafkaConfig) (*kafka.Dialer, *kafka.Transport, error) {
	var tlsConfig *tls.Config
	if config.TLSEnabled {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	mechanism, err := saslMechanism(config)
	if err != nil {
		return nil, nil, err
	}
	dialer := &kafka.Dialer{Timeout: 5 * time.Second, TLS: tlsConfig, SASLMechanism: mechanism}
	if tlsConfig == nil && mechanism == nil {
		return dialer, nil, nil
	}
	return dialer, &kafka.Transport{TLS: tlsConfig, SASL: mechanism}, nil
}

func saslMechanism(config *KafkaConfig) (sasl.Mechanism, error) {
	user := strings.TrimSpace(config.SASLUsername)
	pass := strings.TrimSpace(config.SASLPassword)
	if user == "" && pass == "" {
		return nil, nil
	}
	if user == "" || pass == "" {
		return nil, fmt.Errorf("kafka event bus: sasl username and password are required")
	}
	return plain.Mechanism{Username: user, Password: pass}, nil
}

func parseBrokers(brokers string) []string {
	var out []string
	for _, p := range strings.Split(brokers, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func topicNameFor(prefix, eventType string) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType))
}

func dlqTopicNameFor(prefix, eventType string) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType))
}

var _ eventbus.Bus = (*KafkaBus)(nil)
