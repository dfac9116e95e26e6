package mq

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/assetvault/pkg/configs"
)

// DefaultChannelBufferSize 默认通道缓冲区大小.
const DefaultChannelBufferSize = 100

// metaUUIDField 写入元数据的消息 ID 字段.
const metaUUIDField = "uuid"

// RedisPublisher 基于 Redis Pub/Sub 的 Publisher.
type RedisPublisher struct {
	client *redis.Client
}

// RedisSubscriber 基于 Redis Pub/Sub 的 Subscriber，消息至多投递一次.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber，两者共用一个连接池.
func redisFactory(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	sub := &RedisSubscriber{
		client:  rdb,
		logger:  logger,
		closeCh: make(chan struct{}),
	}

	return &RedisPublisher{client: rdb}, sub, nil
}

// Publish 实现 Publisher 接口，负载为消息原始字节.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if err := p.client.Publish(msg.Context(), topic, msg.Payload).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 连接由 Subscriber 关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 Subscriber 接口.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	ps := s.client.Subscribe(ctx, topic)
	s.subs = append(s.subs, ps)

	ch := make(chan *message.Message, DefaultChannelBufferSize)

	go s.forward(ctx, ps, ch, topic)

	return ch, nil
}

func (s *RedisSubscriber) forward(ctx context.Context, ps *redis.PubSub, ch chan<- *message.Message, topic string) {
	defer close(ch)

	in := ps.Channel()

	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}

			msg := message.NewMessage(watermill.NewUUID(), []byte(m.Payload))
			msg.Metadata.Set("topic", topic)
			msg.Metadata.Set(metaUUIDField, msg.UUID)

			select {
			case ch <- msg:
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			s.logger.Error("close redis subscription", err, nil)
			errs = append(errs, err)
		}
	}

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}
