// Package s3 处理S3存储操作.
package s3

import (
	"context"
	"errors"
	"fmt"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
)

// ErrNotConfigured S3 未启用或缺少必要配置.
var ErrNotConfigured = errors.New("s3 storage is not configured")

// Client 包装 MinIO 客户端，绑定单个 bucket.
type Client struct {
	*minio.Client
	bucket string
	cfg    configs.S3Config
}

// New 初始化 MinIO 客户端，若 bucket 不存在则尝试创建.
func New(ctx context.Context, cfg configs.S3Config, l zerolog.Logger) (*Client, error) {
	if !cfg.IsConfigured() {
		return nil, ErrNotConfigured
	}

	endpoint, secure := cfg.HostAndTLS()

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("assetvault", configs.AppVersion)

	exists, err := cli.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.BucketName, err)
	}

	if !exists {
		if err := cli.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.BucketName, err)
		}

		l.Info().Str("bucket", cfg.BucketName).Msg("bucket created")
	}

	l.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("s3 connected")

	return &Client{Client: cli, bucket: cfg.BucketName, cfg: cfg}, nil
}

// Bucket 返回绑定的 bucket 名称.
func (c *Client) Bucket() string {
	return c.bucket
}

// PutFile 上传本地文件到 key.
func (c *Client) PutFile(ctx context.Context, key, path, contentType string) error {
	_, err := c.FPutObject(ctx, c.bucket, c.cfg.ObjectKey(key), path, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return nil
}

// Delete 删除 key，对象不存在时不报错.
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.RemoveObject(ctx, c.bucket, c.cfg.ObjectKey(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// MoveObject 通过 CopyObject + RemoveObject 移动对象.
func (c *Client) MoveObject(ctx context.Context, fromKey, toKey string) error {
	src := minio.CopySrcOptions{Bucket: c.bucket, Object: c.cfg.ObjectKey(fromKey)}
	dst := minio.CopyDestOptions{Bucket: c.bucket, Object: c.cfg.ObjectKey(toKey)}

	if _, err := c.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("failed to copy object: %w", err)
	}

	if err := c.RemoveObject(ctx, c.bucket, src.Object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove old object: %w", err)
	}

	return nil
}

// HealthCheck 通过检查 bucket 是否存在验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.BucketExists(ctx, c.bucket)

	return err
}

// Close 关闭 S3 客户端连接（无实际操作，接口兼容）.
func (c *Client) Close() error {
	return nil
}
