package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/assetvault/pkg/configs"
)

// DefaultGoChannelBuffer 进程内订阅通道缓冲.
const DefaultGoChannelBuffer = 256

func init() {
	RegisterFactory(configs.MQTypeGoChannel, goChannelFactory)
}

// goChannelFactory 创建进程内 Pub/Sub，Publisher 与 Subscriber 共用一个实例.
func goChannelFactory(_ context.Context, _ *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: DefaultGoChannelBuffer,
	}, logger)

	return ps, ps, nil
}
