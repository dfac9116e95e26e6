package kv

import (
	"bytes"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// envelopeMagic 标记带截止时间的值，没有原生过期能力的后端共用这一格式.
var envelopeMagic = []byte("AVTTL1:")

type envelope struct {
	Value    []byte `json:"v"`
	Deadline int64  `json:"e,omitempty"` // unix 毫秒
}

// seal 在 ttl > 0 时把值和截止时间编码在一起，否则原样返回.
func seal(value []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	if ttl <= 0 {
		return value, nil
	}

	body, err := sonic.Marshal(envelope{Value: value, Deadline: now.Add(ttl).UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("seal value: %w", err)
	}

	out := make([]byte, 0, len(envelopeMagic)+len(body))
	out = append(out, envelopeMagic...)

	return append(out, body...), nil
}

// open 解开 seal 的结果，live 为 false 表示已过期.
// 没有包装头的值视为永不过期.
func open(raw []byte, now time.Time) (value []byte, live bool, err error) {
	if !bytes.HasPrefix(raw, envelopeMagic) {
		return raw, true, nil
	}

	var env envelope
	if err := sonic.Unmarshal(raw[len(envelopeMagic):], &env); err != nil {
		return nil, false, fmt.Errorf("open value: %w", err)
	}

	if env.Deadline > 0 && now.UnixMilli() >= env.Deadline {
		return nil, false, nil
	}

	return env.Value, true, nil
}
