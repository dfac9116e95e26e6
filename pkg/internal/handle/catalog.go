package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/assetvault/pkg/internal/types"
)

// GetCatalog 返回某类资产的候选 id 与名称，类型不区分大小写，未知类型返回空列表.
//
//	@Summary	目录
//	@Tags		catalog
//	@Produce	json
//	@Security	APIKey
//	@Param		type	path		string	true	"monster | map | skill"
//	@Success	200		{object}	types.CatalogResponse
//	@Router		/api/catalog/{type} [get]
func (h *Handlers) GetCatalog(c *gin.Context) {
	typ := c.Param("type")

	items, err := h.svc.Catalog.Load(c.Request.Context(), typ)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, types.CatalogResponse{Type: typ, Items: items})
}
