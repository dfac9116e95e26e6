package mq

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/assetvault/pkg/configs"
)

func TestGoChannelRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := New(ctx, configs.MQConfig{Type: configs.MQTypeGoChannel})
	require.NoError(t, err)

	defer func() { require.NoError(t, client.Close()) }()

	ch, err := client.Subscribe(ctx, "av.test")
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "av.test", message.NewMessage(watermill.NewUUID(), []byte("hello"))))

	select {
	case msg := <-ch:
		require.Equal(t, "hello", string(msg.Payload))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	client, err := New(context.Background(), configs.MQConfig{Type: configs.MQTypeGoChannel})
	require.NoError(t, err)

	require.NoError(t, client.Ping(context.Background()))
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	require.ErrorIs(t, client.Ping(context.Background()), ErrClosed)
	require.ErrorIs(t, client.Publish(context.Background(), "av.test"), ErrClosed)
}

func TestUnsupportedType(t *testing.T) {
	_, err := New(context.Background(), configs.MQConfig{Type: "kafka"})
	require.Error(t, err)
	require.Contains(t, GetRegisteredTypes(), configs.MQTypeGoChannel)
}

func TestBuildURL(t *testing.T) {
	cfg := &configs.MQConfig{Common: configs.MQCommonConfig{URL: "localhost:4222"}}
	require.Equal(t, "nats://localhost:4222", buildURL(cfg))

	cfg.NATS.ClusterURLs = []string{"nats://a:4222", "nats://b:4222"}
	require.Equal(t, "nats://a:4222,nats://b:4222", buildURL(cfg))
}
