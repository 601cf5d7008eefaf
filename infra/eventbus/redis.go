package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/eventbus"

	"github.com/redis/go-redis/v9"
)

// RedisBus carries events over a single Redis stream. Every registered event
// type reads through its own consumer group, so each handler sees every
// message of its type exactly once per group.
type RedisBus struct {
	client   *redis.Client
	stream   string
	group    string
	registry map[string]func() events.Event
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithRedis connects to url and prepares stream for publishing.
func NewWithRedis(url, stream, group string, registry map[string]func() events.Event, logger *slog.Logger) (*RedisBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: url, stream, and group are required")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	return NewWithRedisClient(redis.NewClient(opt), stream, group, registry, logger)
}

// NewWithRedisClient builds the bus around an existing client.
func NewWithRedisClient(client *redis.Client, stream, group string, registry map[string]func() events.Event, logger *slog.Logger) (*RedisBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = events.Registry
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:   client,
		stream:   stream,
		group:    group,
		registry: registry,
		logger:   logger.With("bus", "redis", "stream", stream),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Emit appends the event to the stream.
func (b *RedisBus) Emit(ctx context.Context, event events.Event) error {
	raw, err := encode(event)
	if err != nil {
		return fmt.Errorf("redis event bus: %w", err)
	}
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(raw)},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register starts a consumer for eventType. Messages already in the stream
// when the group is first created are delivered as well.
func (b *RedisBus) Register(eventType string, handler eventbus.HandlerFunc) {
	group := b.group + "." + eventType
	err := b.client.XGroupCreateMkStream(b.ctx, b.stream, group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		b.logger.Error("failed to create consumer group", "group", group, "error", err)
		return
	}
	consumer := fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "group", group)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(eventType, group, consumer, handler)
	}()
}

func (b *RedisBus) consume(eventType, group, consumer string, handler eventbus.HandlerFunc) {
	for {
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if b.ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err, "group", group)
				time.Sleep(time.Second)
			}
			continue
		}

		for _, s := range res {
			for _, msg := range s.Messages {
				b.handle(eventType, msg, handler)
				if err := b.client.XAck(b.ctx, b.stream, group, msg.ID).Err(); err != nil {
					b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
				}
			}
		}
	}
}

func (b *RedisBus) handle(eventType string, msg redis.XMessage, handler eventbus.HandlerFunc) {
	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	typ, evt, err := decode([]byte(raw), b.registry)
	if typ != eventType {
		return
	}
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(msg.Values)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic recovered", "panic", r, "event_type", typ)
			b.pushToDLQ(msg.Values)
		}
	}()
	if err := handler(b.ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", typ)
		b.pushToDLQ(msg.Values)
	}
}

// DLQStream is the stream receiving messages whose handler failed.
func (b *RedisBus) DLQStream() string {
	return b.stream + "-DLQ"
}

func (b *RedisBus) pushToDLQ(values map[string]any) {
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{Stream: b.DLQStream(), Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", b.DLQStream())
}

// Close stops the consumers and the client.
func (b *RedisBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisBus)(nil)
