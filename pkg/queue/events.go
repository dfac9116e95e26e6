package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 只需要发布能力，mq.Client 满足该接口.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publish 封装负载并发布到 topic.
func Publish[T any](ctx context.Context, pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// ParseAsset 解析资产事件.
func ParseAsset(msg *message.Message) (Message[AssetPayload], error) {
	return ParseWatermillMessage[AssetPayload](msg)
}

// ParseRevisionStored 解析修订事件.
func ParseRevisionStored(msg *message.Message) (Message[RevisionStoredPayload], error) {
	return ParseWatermillMessage[RevisionStoredPayload](msg)
}

// ParseBackup 解析备份事件.
func ParseBackup(msg *message.Message) (Message[BackupPayload], error) {
	return ParseWatermillMessage[BackupPayload](msg)
}
