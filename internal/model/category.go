package model

import "fmt"

// Category Chargen 分类
type Category string

const (
	CategoryAktiven          Category = "aktiven"           // Aktivenchargen
	CategoryPhilister        Category = "philister"         // Philisterchargen
	CategoryVerbandAktiven   Category = "verband_aktiven"   // Verbandschargen (Aktiven)
	CategoryVerbandPhilister Category = "verband_philister" // Verbandschargen (Philister)
	CategoryFunktionaere     Category = "funktionaere"      // Funktionaere（不计入 Chargen）
	CategoryUnklare          Category = "unklare"           // 无法判定
)

// AllCategories 全部分类（展示顺序）
var AllCategories = []Category{
	CategoryAktiven,
	CategoryPhilister,
	CategoryVerbandAktiven,
	CategoryVerbandPhilister,
	CategoryFunktionaere,
	CategoryUnklare,
}

// ManualCategories 允许手动指定的分类（unklare 不可手选，删除覆盖即恢复自动判定）
var ManualCategories = []Category{
	CategoryAktiven,
	CategoryPhilister,
	CategoryVerbandAktiven,
	CategoryVerbandPhilister,
	CategoryFunktionaere,
}

var categoryLabels = map[Category]string{
	CategoryAktiven:          "Aktivenchargen",
	CategoryPhilister:        "Philisterchargen",
	CategoryVerbandAktiven:   "Verbandschargen (Aktiven)",
	CategoryVerbandPhilister: "Verbandschargen (Philister)",
	CategoryFunktionaere:     "Funktionaere",
	CategoryUnklare:          "Unklare Chargen",
}

// Label 德文显示名
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid 是否为已知分类
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Manual 是否可作为手动覆盖值
func (c Category) Manual() bool {
	return c.Valid() && c != CategoryUnklare
}

// Counted 是否计入 Chargen 统计
func (c Category) Counted() bool {
	return c.Valid() && c != CategoryFunktionaere
}

// AktivenSide Aktiven 阶段（含 Verband）
func (c Category) AktivenSide() bool {
	return c == CategoryAktiven || c == CategoryVerbandAktiven
}

// PhilisterSide Philister 阶段（含 Verband）
func (c Category) PhilisterSide() bool {
	return c == CategoryPhilister || c == CategoryVerbandPhilister
}

// ParseCategory 解析分类值，同时接受德文显示名
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c.Valid() {
		return c, nil
	}
	for cat, label := range categoryLabels {
		if label == s {
			return cat, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}
