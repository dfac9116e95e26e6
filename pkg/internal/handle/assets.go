package handle

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/revision"
	"github.com/yeisme/assetvault/pkg/internal/service"
	"github.com/yeisme/assetvault/pkg/internal/types"
	"github.com/yeisme/assetvault/pkg/rule"
)

// ListAssets 分页列出资产.
//
//	@Summary		列出资产
//	@Tags			assets
//	@Produce		json
//	@Param			asset_type	query		string	false	"资产类型"
//	@Param			q			query		string	false	"匹配 id、标题或描述"
//	@Param			tags		query		string	false	"逗号分隔，需全部命中"
//	@Param			sort		query		string	false	"updated_desc | id | 其他按 id 字母序"
//	@Param			page		query		int		false	"页码，从 1 开始"
//	@Param			page_size	query		int		false	"每页数量"
//	@Success		200			{object}	types.AssetListResponse
//	@Failure		400			{object}	types.ErrorResponse
//	@Router			/api/assets [get]
func (h *Handlers) ListAssets(c *gin.Context) {
	var q types.ListAssetsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	if err := rule.ValidateStruct(q); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Assets.List(c.Request.Context(), q, h.urls(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetAsset 返回资产及其全部修订.
//
//	@Summary	资产详情
//	@Tags		assets
//	@Produce	json
//	@Param		id	path		string	true	"资产 ID"
//	@Success	200	{object}	types.AssetOut
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/assets/{id} [get]
func (h *Handlers) GetAsset(c *gin.Context) {
	out, err := h.svc.Assets.Get(c.Request.Context(), c.Param("id"), h.urls(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// CreateAsset 上传首个修订并创建资产.
//
//	@Summary	创建资产
//	@Tags		assets
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	APIKey
//	@Param		id			formData	string	true	"资产 ID"
//	@Param		asset_type	formData	string	true	"monster | map | skill | misc"
//	@Param		title		formData	string	false	"标题"
//	@Param		description	formData	string	false	"描述"
//	@Param		tags		formData	string	false	"JSON 数组或逗号分隔"
//	@Param		notes		formData	string	false	"修订备注"
//	@Param		uploaded_by	formData	string	false	"上传人"
//	@Param		file		formData	file	true	"资产文件"
//	@Success	201			{object}	types.AssetOut
//	@Failure	400			{object}	types.ErrorResponse
//	@Failure	403			{object}	types.ErrorResponse
//	@Failure	409			{object}	types.ErrorResponse
//	@Router		/api/assets [post]
func (h *Handlers) CreateAsset(c *gin.Context) {
	var form types.CreateAssetForm

	err := c.ShouldBind(&form)
	if err == nil {
		err = rule.ValidateStruct(form)
	}

	if err != nil {
		if rule.Errors(err)["ID"] == "asset_id" {
			h.fail(c, service.ErrInvalidAssetID)
			return
		}

		badRequest(c, err)

		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, revision.ErrMissingFileName)
		return
	}

	upload, closeFn, err := openUpload(fh)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer closeFn()

	out, err := h.svc.Assets.Create(c.Request.Context(), service.CreateInput{Form: form, Upload: upload}, h.urls(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, out)
}

// UpdateAsset 修改元数据，附带文件时追加新修订.
//
//	@Summary	更新资产
//	@Tags		assets
//	@Accept		multipart/form-data
//	@Produce	json
//	@Security	APIKey
//	@Param		id			path		string	true	"资产 ID"
//	@Param		title		formData	string	false	"标题"
//	@Param		description	formData	string	false	"描述"
//	@Param		tags		formData	string	false	"JSON 数组或逗号分隔"
//	@Param		notes		formData	string	false	"修订备注"
//	@Param		uploaded_by	formData	string	false	"上传人"
//	@Param		file		formData	file	false	"新修订文件"
//	@Success	200			{object}	types.AssetOut
//	@Failure	400			{object}	types.ErrorResponse
//	@Failure	403			{object}	types.ErrorResponse
//	@Failure	404			{object}	types.ErrorResponse
//	@Router		/api/assets/{id} [patch]
func (h *Handlers) UpdateAsset(c *gin.Context) {
	var form types.UpdateAssetForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}

	in := service.UpdateInput{Form: form}

	fh, err := c.FormFile("file")

	switch {
	case err == nil:
		upload, closeFn, openErr := openUpload(fh)
		if openErr != nil {
			h.fail(c, openErr)
			return
		}
		defer closeFn()

		in.Upload = &upload
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		badRequest(c, err)
		return
	}

	out, err := h.svc.Assets.Update(c.Request.Context(), c.Param("id"), in, h.urls(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}

// DeleteAsset 删除资产、修订记录与当前文件，备份保留.
//
//	@Summary	删除资产
//	@Tags		assets
//	@Security	APIKey
//	@Param		id	path	string	true	"资产 ID"
//	@Success	204
//	@Failure	403	{object}	types.ErrorResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/api/assets/{id} [delete]
func (h *Handlers) DeleteAsset(c *gin.Context) {
	if err := h.svc.Assets.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func openUpload(fh *multipart.FileHeader) (revision.Upload, func(), error) {
	if fh.Filename == "" {
		return revision.Upload{}, func() {}, revision.ErrMissingFileName
	}

	f, err := fh.Open()
	if err != nil {
		return revision.Upload{}, func() {}, err
	}

	return revision.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}
