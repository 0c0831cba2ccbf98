package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"albstats/internal/model"
	"albstats/internal/stats"
)

// queryList 同名参数可重复，也可逗号分隔
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseFilters 从查询参数构造筛选条件
//
//	status=UP,BP  semester=SS 2021  category=aktiven  group=Aktive
//	role=Senior  part=aktiven  limit=20  percentile=90  sort=total
func parseFilters(c *gin.Context) (stats.Filters, error) {
	var f stats.Filters

	for _, s := range queryList(c, "status") {
		f.Statuses = append(f.Statuses, model.NormalizeStatus(s))
	}
	f.Semester = strings.TrimSpace(c.Query("semester"))

	for _, s := range queryList(c, "category") {
		cat, err := model.ParseCategory(s)
		if err != nil {
			return f, fmt.Errorf("Unbekannte Kategorie %q", s)
		}
		f.Categories = append(f.Categories, cat)
	}
	for _, s := range queryList(c, "group") {
		switch strings.ToLower(s) {
		case "aktive":
			f.PersonGroups = append(f.PersonGroups, model.GroupAktive)
		case "philister":
			f.PersonGroups = append(f.PersonGroups, model.GroupPhilister)
		default:
			return f, fmt.Errorf("Unbekannte Personengruppe %q", s)
		}
	}
	f.Roles = queryList(c, "role")
	for _, s := range queryList(c, "part") {
		switch stats.IntensityPart(strings.ToLower(s)) {
		case stats.PartAktiven:
			f.IntensityParts = append(f.IntensityParts, stats.PartAktiven)
		case stats.PartPhilister:
			f.IntensityParts = append(f.IntensityParts, stats.PartPhilister)
		default:
			return f, fmt.Errorf("Unbekannter Anteil %q", s)
		}
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			return f, fmt.Errorf("Ungültiger Parameter limit: %q", v)
		}
		f.Limit = n
	}
	if v := c.Query("percentile"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p <= 0 || p > 100 {
			return f, fmt.Errorf("Ungültiges Perzentil: %q", v)
		}
		f.Percentile = p
	}
	sortBy, err := stats.ParseSortBy(c.Query("sort"))
	if err != nil {
		return f, fmt.Errorf("Unbekannte Sortierung %q", c.Query("sort"))
	}
	f.SortBy = sortBy
	return f, nil
}

// GetStats 计算全部统计
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
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
	c.JSON(http.StatusOK, bundle)
}

// GetCandidates 覆盖候选
// GET /api/candidates
func (h *Handler) GetCandidates(c *gin.Context) {
	cands, err := h.session.Candidates()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, cands)
}
