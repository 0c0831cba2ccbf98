package stats

import (
	"fmt"
	"strings"

	"albstats/internal/model"
)

// Options 统计参数（来自配置 [analysis]）
type Options struct {
	AgeBinWidth    int     `toml:"age_bin_width" json:"ageBinWidth" validate:"min=1,max=50"`
	Percentile     float64 `toml:"percentile" json:"percentile" validate:"gt=0,lte=100"`
	TopN           int     `toml:"top_n" json:"topN" validate:"min=1,max=500"`
	MaxDetailLines int     `toml:"max_detail_lines" json:"maxDetailLines" validate:"min=1,max=1000"`
}

// DefaultOptions 默认参数
func DefaultOptions() Options {
	return Options{
		AgeBinWidth:    5,
		Percentile:     90,
		TopN:           20,
		MaxDetailLines: 20,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AgeBinWidth <= 0 {
		o.AgeBinWidth = def.AgeBinWidth
	}
	if o.Percentile <= 0 || o.Percentile > 100 {
		o.Percentile = def.Percentile
	}
	if o.TopN <= 0 {
		o.TopN = def.TopN
	}
	if o.MaxDetailLines <= 0 {
		o.MaxDetailLines = def.MaxDetailLines
	}
	return o
}

// SortBy 表格排序方式
type SortBy string

const (
	SortTotal     SortBy = "total"
	SortAktiven   SortBy = "aktiven"
	SortPhilister SortBy = "philister"
	SortUnklare   SortBy = "unklare"
	SortSemester  SortBy = "semester"
	SortName      SortBy = "name"
)

// ParseSortBy 解析排序方式，兼容 active/unclear 写法
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "total":
		return SortTotal, nil
	case "aktiven", "active":
		return SortAktiven, nil
	case "philister":
		return SortPhilister, nil
	case "unklare", "unclear":
		return SortUnklare, nil
	case "semester":
		return SortSemester, nil
	case "name":
		return SortName, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// IntensityPart 强度图的组成部分
type IntensityPart string

const (
	PartAktiven   IntensityPart = "aktiven"   // Aktiven + Verbandschargen (Aktiven)
	PartPhilister IntensityPart = "philister" // Philister + Verbandschargen (Philister)
)

// Filters 界面筛选条件
type Filters struct {
	Statuses       []model.Status
	Semester       string // 空 = 全部学期
	Categories     []model.Category
	PersonGroups   []model.PersonGroup
	Roles          []string
	IntensityParts []IntensityPart
	Limit          int
	Percentile     float64 // 0 = 使用 Options.Percentile
	SortBy         SortBy
}

// DefaultCategories 分类图默认选择
var DefaultCategories = []model.Category{model.CategoryAktiven, model.CategoryVerbandAktiven}

func (f Filters) normalize(opts Options) Filters {
	if len(f.Categories) == 0 {
		f.Categories = DefaultCategories
	}
	if len(f.PersonGroups) == 0 {
		f.PersonGroups = []model.PersonGroup{model.GroupAktive, model.GroupPhilister}
	}
	if len(f.IntensityParts) == 0 {
		f.IntensityParts = []IntensityPart{PartAktiven, PartPhilister}
	}
	if f.Limit <= 0 {
		f.Limit = opts.TopN
	}
	if f.Percentile <= 0 || f.Percentile > 100 {
		f.Percentile = opts.Percentile
	}
	if f.SortBy == "" {
		f.SortBy = SortTotal
	}
	if f.Semester != "" {
		f.Semester = model.CanonicalSemester(f.Semester)
	}
	return f
}
