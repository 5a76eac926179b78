package live

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"reflectionsmatch/logger"
)

const REDIS_OUTBOX_SIZE = 256

// RedisBridge mirrors hub changes across server instances through a redis
// pub/sub channel. Each instance tags what it sends and ignores its own echo.
type RedisBridge struct {
	log      *logger.Logger
	rdb      *goredis.Client
	channel  string
	instance string
	hub      *Hub
	publish  func(ctx context.Context, payload []byte) error
	outbox   chan Change
}

func NewRedisBridge(log *logger.Logger, hub *Hub, url, channel string) (*RedisBridge, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	b := newBridge(log, hub, channel, func(ctx context.Context, payload []byte) error {
		return rdb.Publish(ctx, channel, payload).Err()
	})
	b.rdb = rdb
	return b, nil
}

func newBridge(log *logger.Logger, hub *Hub, channel string, publish func(context.Context, []byte) error) *RedisBridge {
	return &RedisBridge{
		log:      log.With("service", "RedisBridge"),
		channel:  channel,
		instance: uuid.NewString(),
		hub:      hub,
		publish:  publish,
		outbox:   make(chan Change, REDIS_OUTBOX_SIZE),
	}
}

// Start subscribes to the channel and installs the hub forwarder.
func (b *RedisBridge) Start(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	b.hub.SetForwarder(b.enqueue)
	go b.drain(ctx)

	go func() {
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok || m == nil {
					return
				}
				b.relay([]byte(m.Payload))
			}
		}
	}()

	b.log.Info("redis bridge started", "channel", b.channel, "instance", b.instance)
	return nil
}

// enqueue is the hub forwarder. A full outbox drops the change for other
// instances; local subscribers already have it.
func (b *RedisBridge) enqueue(ch Change) {
	select {
	case b.outbox <- ch:
	default:
		b.log.Warn("redis outbox full, change dropped", "user_id", ch.UserID, "kind", ch.Kind)
	}
}

func (b *RedisBridge) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ch := <-b.outbox:
			b.send(ctx, ch)
		}
	}
}

func (b *RedisBridge) send(ctx context.Context, ch Change) {
	ch.Instance = b.instance
	raw, err := json.Marshal(ch)
	if err != nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := b.publish(pctx, raw); err != nil {
		b.log.Warn("redis publish failed", "error", err)
	}
}

// relay hands a change from another instance to local subscribers.
func (b *RedisBridge) relay(payload []byte) {
	var ch Change
	if err := json.Unmarshal(payload, &ch); err != nil {
		b.log.Warn("bad redis change payload", "error", err)
		return
	}
	if ch.Instance == "" || ch.Instance == b.instance {
		return
	}
	b.hub.PublishRemote(ch)
}

func (b *RedisBridge) Close() error {
	b.hub.SetForwarder(nil)
	if b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
