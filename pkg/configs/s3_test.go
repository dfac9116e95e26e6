package configs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestS3Config_HostAndTLS(t *testing.T) {
	c := S3Config{Endpoint: "https://s3.example.com", UseSSL: false}
	host, tls := c.HostAndTLS()
	require.Equal(t, "s3.example.com", host)
	require.True(t, tls)

	c = S3Config{Endpoint: "minio:9000", UseSSL: true}
	host, tls = c.HostAndTLS()
	require.Equal(t, "minio:9000", host)
	require.True(t, tls)
}

func TestS3Config_ObjectKey(t *testing.T) {
	require.Equal(t, "raw/m-slime.png", (&S3Config{}).ObjectKey("raw/m-slime.png"))
	require.Equal(t, "staging/raw/m-slime.png", (&S3Config{KeyPrefix: "/staging/"}).ObjectKey("raw/m-slime.png"))
}

func TestS3Config_IsConfigured(t *testing.T) {
	require.False(t, (&S3Config{Endpoint: "x", BucketName: "assets"}).IsConfigured())
	require.True(t, (&S3Config{Enabled: true, Endpoint: "x", BucketName: "assets"}).IsConfigured())
}
