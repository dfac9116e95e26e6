package handle

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/types"
)

// splitBackupFile 把路径参数 "{key}.{ext}" 拆为 key 与带点的扩展名.
func splitBackupFile(file string) (key, ext string, ok bool) {
	ext = filepath.Ext(file)
	key = strings.TrimSuffix(file, ext)

	if ext == "" || ext == "." || key == "" {
		return "", "", false
	}

	return key, ext, true
}

// ListBackups 列出资产文件的全部备份，从新到旧.
//
//	@Summary	列出备份
//	@Tags		backups
//	@Produce	json
//	@Security	APIKey
//	@Param		file	path		string	true	"资产文件名，如 m-slime.png"
//	@Success	200		{object}	types.BackupListResponse
//	@Failure	400		{object}	types.ErrorResponse
//	@Router		/api/backups/{file} [get]
func (h *Handlers) ListBackups(c *gin.Context) {
	key, ext, ok := splitBackupFile(c.Param("file"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidBackup})
		return
	}

	res, err := h.svc.Backups.List(c.Request.Context(), key, ext)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// RestoreBackup 用指定备份替换当前文件，当前文件先被备份.
//
//	@Summary	恢复备份
//	@Tags		backups
//	@Produce	json
//	@Security	APIKey
//	@Param		file	path		string	true	"资产文件名"
//	@Param		ts		path		string	true	"备份时间戳"
//	@Success	200		{object}	types.BackupActionResponse
//	@Failure	403		{object}	types.ErrorResponse
//	@Router		/api/backups/{file}/restore/{ts} [post]
func (h *Handlers) RestoreBackup(c *gin.Context) {
	key, ext, ok := splitBackupFile(c.Param("file"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidBackup})
		return
	}

	res, err := h.svc.Backups.Restore(c.Request.Context(), key, ext, c.Param("ts"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// DeleteBackup 删除一个备份文件.
//
//	@Summary	删除备份
//	@Tags		backups
//	@Produce	json
//	@Security	APIKey
//	@Param		file	path		string	true	"资产文件名"
//	@Param		ts		path		string	true	"备份时间戳"
//	@Success	200		{object}	types.BackupActionResponse
//	@Failure	403		{object}	types.ErrorResponse
//	@Router		/api/backups/{file}/{ts} [delete]
func (h *Handlers) DeleteBackup(c *gin.Context) {
	key, ext, ok := splitBackupFile(c.Param("file"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: msgInvalidBackup})
		return
	}

	res, err := h.svc.Backups.Delete(c.Request.Context(), key, ext, c.Param("ts"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
