// Package handle 实现 HTTP 处理器：资产、备份、目录、健康检查与调度器.
package handle

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/assetvault/pkg/configs"
	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/internal/types"
	"github.com/yeisme/assetvault/pkg/rule"
)

// 返回给客户端的错误信息.
const (
	msgAssetNotFound   = "Asset not found."
	msgAssetExists     = "Asset already exists."
	msgPageOutOfRange  = "Page number exceeds result set."
	msgMissingFile     = "Uploaded file must have a filename."
	msgReadOnly        = "Backend is running in read-only mode."
	msgInvalidAssetID  = "Asset ID may only contain lowercase letters, digits, '_' and '-'."
	msgInvalidBackup   = "Expected '{asset_key}.{extension}'."
	msgTooLarge        = "Uploaded file is too large."
	msgInternalFailure = "Internal server error."
)

// Handlers 持有处理器依赖.
type Handlers struct {
	svc     *service.Services
	assets  configs.AssetsConfig
	baseURL string
	logger  zerolog.Logger
}

// New 创建处理器，publicBaseURL 非空时下载地址固定使用它.
func New(svc *service.Services, assets configs.AssetsConfig, publicBaseURL string, logger zerolog.Logger) *Handlers {
	return &Handlers{
		svc:     svc,
		assets:  assets,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:  logger,
	}
}

// urls 根据请求的 scheme 与 host 生成下载地址前缀.
func (h *Handlers) urls(c *gin.Context) service.URLBuilder {
	if h.baseURL != "" {
		return service.URLBuilder{BaseURL: h.baseURL, Prefix: h.assets.PublicRawPrefix}
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}

	return service.URLBuilder{BaseURL: scheme + "://" + host, Prefix: h.assets.PublicRawPrefix}
}

// fail 把业务错误映射为 HTTP 状态码与错误信息.
func (h *Handlers) fail(c *gin.Context, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, revision.ErrReadOnly):
		return http.StatusForbidden, msgReadOnly
	case errors.Is(err, service.ErrAssetNotFound):
		return http.StatusNotFound, msgAssetNotFound
	case errors.Is(err, service.ErrAssetExists):
		return http.StatusConflict, msgAssetExists
	case errors.Is(err, service.ErrPageOutOfRange):
		return http.StatusBadRequest, msgPageOutOfRange
	case errors.Is(err, service.ErrInvalidAssetID), errors.Is(err, revision.ErrInvalidAssetKey):
		return http.StatusBadRequest, msgInvalidAssetID
	case errors.Is(err, revision.ErrMissingFileName), errors.Is(err, http.ErrMissingFile):
		return http.StatusBadRequest, msgMissingFile
	}

	var (
		sizeErr *http.MaxBytesError
		typeErr *service.AssetTypeError
		nameErr *service.FilenameError
		extErr  *revision.ExtensionError
	)

	switch {
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, typeErr.Error()
	case errors.As(err, &nameErr):
		return http.StatusBadRequest, nameErr.Error()
	case errors.As(err, &extErr):
		return http.StatusBadRequest, extErr.Error()
	}

	return http.StatusInternalServerError, msgInternalFailure
}

// badRequest 返回 400，校验错误按字段拼接.
func badRequest(c *gin.Context, err error) {
	var sizeErr *http.MaxBytesError
	if errors.As(err, &sizeErr) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: msgTooLarge})
		return
	}

	msg := err.Error()
	if fields := rule.Errors(err); len(fields) > 0 {
		msg = fields.String()
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: msg})
}
