package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"albstats/internal/importer"
	"albstats/internal/session"
)

// ImportResponse 导入结果
type ImportResponse struct {
	DatasetID   string   `json:"datasetId"`
	Source      string   `json:"source"`
	Sheet       string   `json:"sheet"`
	Members     int      `json:"members"`
	Assignments int      `json:"assignments"`
	Warnings    []string `json:"warnings"`
}

// Import 上传 Excel 导出文件并替换当前数据集
// POST /api/import (multipart, 字段 file)
func (h *Handler) Import(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Keine Datei hochgeladen"})
		return
	}
	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nur Excel-Dateien (.xlsx) werden unterstützt"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Datei kann nicht gelesen werden"})
		return
	}
	defer f.Close()

	ds, err := h.session.LoadUpload(f, fh.Filename)
	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "import failed",
			slog.String("file", fh.Filename),
			slog.String("error", err.Error()),
		)
		var missing *importer.MissingColumnsError
		switch {
		case errors.As(err, &missing):
			h.abortWithError(c, err)
		case errors.Is(err, session.ErrUploadTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Datei kann nicht verarbeitet werden: " + err.Error()})
		}
		return
	}

	warnings := ds.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, ImportResponse{
		DatasetID:   ds.ID,
		Source:      ds.Source,
		Sheet:       ds.Sheet,
		Members:     len(ds.Members),
		Assignments: len(ds.Assignments),
		Warnings:    warnings,
	})
}
