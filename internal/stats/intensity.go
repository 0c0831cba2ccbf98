package stats

import (
	"sort"
	"time"

	"albstats/internal/model"
)

// 强度基数来源
const (
	BasisReception    = "Reception"
	BasisSemesterSpan = "SemesterSpan"
)

const daysPerYear = 365.2425

// Intensity 单人每年 Chargen 数
type Intensity struct {
	Name           string  `json:"name"`
	Total          int     `json:"total"`
	AktivenCount   int     `json:"aktivenCount"`   // Aktiven + Verband (Aktiven)
	PhilisterCount int     `json:"philisterCount"` // Philister + Verband (Philister)
	BasisYears     float64 `json:"basisYears"`
	BasisSource    string  `json:"basisSource"`
	Reception      string  `json:"reception,omitempty"`
	PerYear        float64 `json:"perYear"`
	AktivenPerYear float64 `json:"aktivenPerYear"`
	PhilPerYear    float64 `json:"philisterPerYear"`
	Selected       float64 `json:"selected"` // 所选部分之和
	Standout       bool    `json:"standout"`
}

// Percentiles 分位数阈值
type Percentiles struct {
	Percentile      float64  `json:"percentile"`
	IntensityCutoff *float64 `json:"intensityCutoff"`
	TotalCutoff     *float64 `json:"totalCutoff"`
}

type spanTracker struct {
	minYear, maxYear int
	ok               bool
}

func (s *spanTracker) add(year int) {
	if !s.ok {
		s.minYear, s.maxYear, s.ok = year, year, true
		return
	}
	s.minYear = min(s.minYear, year)
	s.maxYear = max(s.maxYear, year)
}

func (s spanTracker) years() float64 {
	if !s.ok {
		return 1
	}
	return float64(s.maxYear - s.minYear + 1)
}

// buildIntensity 只统计至少有一条计入 Chargen 的成员
// 基数：Reception 至 today 的年数（至少 1 年）；Reception 缺失或在未来时用学期跨度
func buildIntensity(cd *model.ClassifiedDataset, parts []IntensityPart) []Intensity {
	spans := make(map[string]*spanTracker)
	counts := make(map[string]*Intensity)
	var order []string
	for _, a := range cd.Assignments {
		if !a.Category.Counted() {
			continue
		}
		it, ok := counts[a.Member]
		if !ok {
			it = &Intensity{Name: a.Member}
			counts[a.Member] = it
			spans[a.Member] = &spanTracker{}
			order = append(order, a.Member)
		}
		it.Total++
		switch {
		case a.Category.AktivenSide():
			it.AktivenCount++
		case a.Category.PhilisterSide():
			it.PhilisterCount++
		}
		if sem, ok := model.ParseSemester(a.Semester); ok {
			spans[a.Member].add(sem.Year)
		}
	}

	useAktiven, usePhil := false, false
	for _, p := range parts {
		switch p {
		case PartAktiven:
			useAktiven = true
		case PartPhilister:
			usePhil = true
		}
	}

	out := make([]Intensity, 0, len(order))
	for _, name := range order {
		it := counts[name]
		it.BasisYears, it.BasisSource = basisYears(cd, name, cd.Today, spans[name])
		if m, ok := cd.Dataset.Member(name); ok && it.BasisSource == BasisReception {
			it.Reception = m.ReceptionDate.String()
		}
		it.PerYear = float64(it.Total) / it.BasisYears
		it.AktivenPerYear = float64(it.AktivenCount) / it.BasisYears
		it.PhilPerYear = float64(it.PhilisterCount) / it.BasisYears
		if useAktiven {
			it.Selected += it.AktivenPerYear
		}
		if usePhil {
			it.Selected += it.PhilPerYear
		}
		out = append(out, *it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PerYear != out[j].PerYear {
			return out[i].PerYear > out[j].PerYear
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func basisYears(cd *model.ClassifiedDataset, name string, today time.Time, span *spanTracker) (float64, string) {
	m, ok := cd.Dataset.Member(name)
	if ok && m.ReceptionDate.OK && !m.ReceptionDate.Time.After(today) {
		years := today.Sub(m.ReceptionDate.Time).Hours() / 24 / daysPerYear
		return max(years, 1), BasisReception
	}
	return span.years(), BasisSemesterSpan
}

// markStandouts 在非零强度上取经验分位数，≥ 阈值的成员标记为突出
func markStandouts(rows []Intensity, persons []*PersonStats, percentile float64) Percentiles {
	p := Percentiles{Percentile: percentile}

	var intensities []float64
	for _, r := range rows {
		if r.PerYear > 0 {
			intensities = append(intensities, r.PerYear)
		}
	}
	p.IntensityCutoff = quantile(intensities, percentile/100)
	if p.IntensityCutoff != nil {
		for i := range rows {
			rows[i].Standout = rows[i].PerYear > 0 && rows[i].PerYear >= *p.IntensityCutoff
		}
	}

	var totals []float64
	for _, person := range persons {
		if person.Total > 0 {
			totals = append(totals, float64(person.Total))
		}
	}
	p.TotalCutoff = quantile(totals, percentile/100)
	return p
}

// intensityChart 按所选部分之和排序取前 limit
func intensityChart(rows []Intensity, limit int) []Intensity {
	out := append([]Intensity{}, rows...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Selected != out[j].Selected {
			return out[i].Selected > out[j].Selected
		}
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
