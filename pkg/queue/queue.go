// Package queue 定义资产与备份事件的信封格式和主题.
//
// 每条消息是 Header + Payload 的 JSON（bytedance/sonic 编码）：
//
//	{
//	  "header": {
//	    "topic": "av.backup.created",
//	    "trace_id": "4bf92f3577b34da6a3ce929d0e0e4736",
//	    "request_id": "0b6f1c5e-3a57-4d0e-9d44-2f1f5b0c9f11",
//	    "producer": "assetvault",
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": {"asset_key": "m-slime", "extension": ".png", ...}
//	}
//
// 发布：
//
//	err := queue.Publish(ctx, mqClient, queue.TopicBackupCreated, payload,
//		queue.WithProducer("assetvault"))
//
// 订阅：
//
//	ch, _ := mqClient.Subscribe(ctx, queue.TopicBackupCreated)
//	for m := range ch {
//		env, _ := queue.ParseBackup(m)
//		m.Ack()
//	}
//
// 消费者应忽略未知字段，version 用于后续演进.
package queue

import (
	"time"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewEventHeader 创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	hdr := EventHeader{
		Topic:      topic,
		OccurredAt: time.Now().UTC(),
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithRequestID 设置 RequestID.
func WithRequestID(id string) func(*EventHeader) { return func(h *EventHeader) { h.RequestID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// Encode 将消息编码为 JSON.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 解码消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造 watermill 消息，头部字段同时写入元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", header.Version)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.RequestID != "" {
		msg.Metadata.Set("request_id", header.RequestID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
