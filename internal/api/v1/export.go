package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"albstats/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export 按当前筛选导出表格
// GET /api/export?format=csv|xlsx&<stats 参数>
func (h *Handler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unbekanntes Format: " + format})
		return
	}
	f, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bundle, err := h.session.Compute(f)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		err = exporter.WriteXLSX(&buf, bundle)
		contentType = xlsxContentType
	} else {
		err = exporter.WriteCSV(&buf, bundle)
	}
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(bundle.Source), filepath.Ext(bundle.Source))
	if base == "" || base == "." {
		base = "chargen"
	}
	filename := fmt.Sprintf("%s_chargen_%s.%s", base, bundle.Today.Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
