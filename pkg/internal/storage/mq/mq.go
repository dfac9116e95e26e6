// Package mq 基于 Watermill 封装发布/订阅客户端，通过工厂按 mq.type 选择实现.
//
// 支持的 MQ 类型：
//   - gochannel（进程内，默认）
//   - NATS（可选 JetStream）
//   - Redis Pub/Sub
//
//	client, err := mq.New(ctx, cfg.MQ, mq.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicBackupCreated, payload)
//	err = client.Publish(ctx, queue.TopicBackupCreated, msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
)

// ErrClosed 客户端已关闭.
var ErrClosed = errors.New("mq client closed")

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var (
	factories   = map[configs.MQType]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[t] = f
}

// GetRegisteredTypes 返回已注册的 MQ 类型.
func GetRegisteredTypes() []configs.MQType {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	typ        configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	closed     atomic.Bool
}

type options struct {
	logger   zerolog.Logger
	registry prometheus.Registerer
}

// Option 客户端选项.
type Option func(*options)

// WithLogger 设置日志.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics 用 watermill 的 prometheus 装饰器统计发布与订阅.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// New 按配置创建消息队列客户端.
func New(ctx context.Context, cfg configs.MQConfig, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(o.logger)

	pub, sub, err := factory(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if o.registry != nil && cfg.Common.EnableMetrics {
		builder := wmetrics.NewPrometheusMetricsBuilder(o.registry, "assetvault", "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}
	}

	o.logger.Info().Str("type", string(cfg.Type)).Msg("MQ 客户端已初始化")

	return &Client{typ: cfg.Type, publisher: pub, subscriber: sub}, nil
}

// Type 返回 MQ 类型.
func (c *Client) Type() configs.MQType { return c.typ }

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher { return c.publisher }

// Publish 便捷发布.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return fmt.Errorf("mq publisher not initialized")
	}

	if c.closed.Load() {
		return ErrClosed
	}

	for _, m := range msgs {
		m.SetContext(ctx)

		if err := c.publisher.Publish(topic, m); err != nil {
			return err
		}
	}

	return nil
}

// Subscribe 订阅主题，ctx 取消后通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, fmt.Errorf("mq subscriber not initialized")
	}

	if c.closed.Load() {
		return nil, ErrClosed
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Ping 检查客户端是否可用.
func (c *Client) Ping(_ context.Context) error {
	if c == nil || c.closed.Load() {
		return ErrClosed
	}

	return nil
}

// Close 关闭资源，重复调用安全.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	// gochannel 的 Publisher 与 Subscriber 是同一个对象
	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
