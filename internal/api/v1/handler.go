package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"albstats/internal/importer"
	"albstats/internal/session"
)

// Handler V1 API 处理器
type Handler struct {
	session *session.Manager
	logger  *slog.Logger
}

// NewHandler 创建 V1 API 处理器
func NewHandler(sess *session.Manager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{session: sess, logger: logger}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 会话状态
	router.GET("/status", h.GetStatus)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)

	// 统计
	router.GET("/stats", h.GetStats)
	router.GET("/candidates", h.GetCandidates)

	// 手动分类
	router.GET("/overrides", h.ListOverrides)
	router.PUT("/overrides", h.PutOverride)
	router.DELETE("/overrides", h.DeleteOverride)

	// 导出
	router.GET("/export", h.Export)
}

// abortWithError 按错误类型选择状态码，统一输出 {"error": ...}
func (h *Handler) abortWithError(c *gin.Context, err error) {
	var missing *importer.MissingColumnsError
	switch {
	case errors.Is(err, session.ErrNoDataset):
		c.JSON(http.StatusConflict, gin.H{"error": "Keine Daten geladen. Bitte zuerst eine Exportdatei hochladen."})
	case errors.As(err, &missing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   missing.Error(),
			"sheet":   missing.Sheet,
			"missing": missing.Columns,
		})
	default:
		h.logger.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
