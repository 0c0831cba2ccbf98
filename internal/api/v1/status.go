package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetStatus 获取会话状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

// ListImports 导入历史
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültiger Parameter limit"})
		return
	}
	logs, err := h.session.ImportHistory(limit)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}
