package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"albstats/internal/model"
	"albstats/internal/override"
)

// OverrideRequest 写入覆盖；member/semester 为空表示通配
type OverrideRequest struct {
	Member   string `json:"member" binding:"max=200"`
	Role     string `json:"role" binding:"required,max=200"`
	Semester string `json:"semester" binding:"max=40"`
	Category string `json:"category" binding:"required"`
}

// OverrideKeyQuery 删除覆盖
type OverrideKeyQuery struct {
	Member   string `form:"member"`
	Role     string `form:"role" binding:"required"`
	Semester string `form:"semester"`
}

// ListOverrides 全部覆盖及可选分类
// GET /api/overrides
func (h *Handler) ListOverrides(c *gin.Context) {
	type option struct {
		Category model.Category `json:"category"`
		Label    string         `json:"label"`
	}
	options := make([]option, 0, len(model.ManualCategories))
	for _, cat := range model.ManualCategories {
		options = append(options, option{Category: cat, Label: cat.Label()})
	}
	c.JSON(http.StatusOK, gin.H{
		"items":      h.session.Overrides(),
		"categories": options,
	})
}

// PutOverride 新增或修改覆盖，立即持久化
// PUT /api/overrides
func (h *Handler) PutOverride(c *gin.Context) {
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültige Anfrage: " + err.Error()})
		return
	}
	cat, err := model.ParseCategory(req.Category)
	if err != nil || !cat.Manual() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültige Kategorie: " + req.Category})
		return
	}

	key := override.NewKey(req.Member, req.Role, req.Semester)
	if err := h.session.SetOverride(key, cat); err != nil {
		if errors.Is(err, override.ErrInvalidOverride) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültige Zuordnung: " + err.Error()})
			return
		}
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, override.Entry{Key: key, Category: cat, Label: cat.Label()})
}

// DeleteOverride 删除覆盖，键不存在时也返回成功
// DELETE /api/overrides?member=..&role=..&semester=..
func (h *Handler) DeleteOverride(c *gin.Context) {
	var q OverrideKeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ungültige Anfrage: " + err.Error()})
		return
	}
	key := override.NewKey(q.Member, q.Role, q.Semester)
	if err := h.session.DeleteOverride(key); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": key})
}
