package configs

import (
	"time"

	"github.com/spf13/viper"
)

// MQType 事件总线实现.
type MQType string

const (
	MQTypeGoChannel MQType = "gochannel" // 进程内，默认
	MQTypeNATS      MQType = "nats"
	MQTypeRedis     MQType = "redis"
)

// MQConfig 事件总线配置，仅在 events.enabled 时创建客户端.
type MQConfig struct {
	Type   MQType         `mapstructure:"type"   rule:"oneof=gochannel nats redis"`
	Common MQCommonConfig `mapstructure:"common"`
	NATS   MQNATSConfig   `mapstructure:"nats"`
	Redis  MQRedisConfig  `mapstructure:"redis"`
}

// MQCommonConfig 连接参数，目前只有 NATS 使用其中的重连与心跳设置.
type MQCommonConfig struct {
	URL           string        `mapstructure:"url"            rule:"hostname_port"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	ClientID      string        `mapstructure:"client_id"`
	MaxReconnects int           `mapstructure:"max_reconnects" rule:"min=-1,max=100"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	MaxPingsOut   int           `mapstructure:"max_pings_out"  rule:"min=1,max=10"`
	BufferSize    int           `mapstructure:"buffer_size"    rule:"min=1024"`
	// StrictConnect 为 true 时启动阶段连不上直接失败，否则后台重试.
	StrictConnect bool `mapstructure:"strict_connect"`
	EnableMetrics bool `mapstructure:"enable_metrics"`
}

// MQNATSConfig NATS 与 JetStream 设置.
type MQNATSConfig struct {
	JetStreamEnabled       bool     `mapstructure:"jetstream_enabled"`
	StreamName             string   `mapstructure:"stream_name"`
	JetStreamAutoProvision bool     `mapstructure:"jetstream_auto_provision"`
	JetStreamTrackMsgID    bool     `mapstructure:"jetstream_track_msg_id"`
	JetStreamAckAsync      bool     `mapstructure:"jetstream_ack_async"`
	JetStreamDurablePrefix string   `mapstructure:"jetstream_durable_prefix"`
	JWT                    string   `mapstructure:"jwt"`
	NKey                   string   `mapstructure:"nkey"`
	ClusterURLs            []string `mapstructure:"cluster_urls"`
	// LoadBalance 多实例订阅同一主题时以 client_id 为队列组.
	LoadBalance bool `mapstructure:"load_balance"`
}

// MQRedisConfig Redis pub/sub 设置.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeGoChannel)

	v.SetDefault("mq.common.url", "localhost:4222")
	v.SetDefault("mq.common.client_id", "assetvault")
	v.SetDefault("mq.common.max_reconnects", 5)
	v.SetDefault("mq.common.reconnect_wait", "5s")
	v.SetDefault("mq.common.ping_interval", "20s")
	v.SetDefault("mq.common.max_pings_out", 3)
	v.SetDefault("mq.common.buffer_size", 32*1024)
	v.SetDefault("mq.common.strict_connect", false)
	v.SetDefault("mq.common.enable_metrics", false)

	v.SetDefault("mq.nats.jetstream_enabled", true)
	v.SetDefault("mq.nats.stream_name", "assetvault-events")
	v.SetDefault("mq.nats.jetstream_auto_provision", true)
	v.SetDefault("mq.nats.jetstream_track_msg_id", true)
	v.SetDefault("mq.nats.jetstream_ack_async", false)
	v.SetDefault("mq.nats.jetstream_durable_prefix", "assetvault")
	v.SetDefault("mq.nats.cluster_urls", []string{})
	v.SetDefault("mq.nats.load_balance", true)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.db", 0)
}
