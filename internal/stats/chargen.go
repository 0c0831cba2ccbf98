package stats

import (
	"fmt"
	"sort"
	"strings"

	"albstats/internal/model"
)

// NoDetails 没有 Chargen 记录时的明细文本
const NoDetails = "Keine Chargen-Details"

// PersonStats 单人 Chargen 统计
type PersonStats struct {
	Name          string                 `json:"name"`
	Status        model.Status           `json:"status"`
	Group         model.PersonGroup      `json:"group"`
	Total         int                    `json:"total"` // 计入统计的 Chargen（不含 Funktionaere）
	Aktiven       int                    `json:"aktiven"`
	Philister     int                    `json:"philister"`
	Unklare       int                    `json:"unklare"`
	SemesterCount int                    `json:"semesterCount"`
	ByCategory    map[model.Category]int `json:"byCategory"`
	Details       string                 `json:"details"`
}

// Averages 人均 Chargen（分母为至少有一条计入统计的人数）
type Averages struct {
	PersonsWithChargen int      `json:"personsWithChargen"`
	Total              *float64 `json:"total"`
	Aktiven            *float64 `json:"aktiven"`
	Philister          *float64 `json:"philister"`
}

// detailLine 明细行
type detailLine struct {
	semester string
	entry    string
}

func (d detailLine) String() string {
	if d.semester == model.UnknownSemester || d.semester == "" {
		return d.entry
	}
	return d.semester + ": " + d.entry
}

// detailsText 按学期排序、去重、截断到 maxLines 行
func detailsText(lines []detailLine, maxLines int) string {
	if len(lines) == 0 {
		return NoDetails
	}
	sorted := append([]detailLine(nil), lines...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := model.CompareSemesterLabels(sorted[i].semester, sorted[j].semester); c != 0 {
			return c < 0
		}
		return sorted[i].entry < sorted[j].entry
	})
	seen := make(map[string]bool, len(sorted))
	out := make([]string, 0, len(sorted))
	for _, l := range sorted {
		s := l.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) > maxLines {
		hidden := len(out) - maxLines
		out = append(out[:maxLines], fmt.Sprintf("... (+%d weitere)", hidden))
	}
	return strings.Join(out, "\n")
}

func entryText(a model.ClassifiedAssignment) string {
	if a.Entry != "" {
		return a.Entry
	}
	return a.Role
}

// buildPersons 全部成员（含 0 条）的统计，顺序与数据集一致
func buildPersons(cd *model.ClassifiedDataset, semester string, maxLines int) []*PersonStats {
	members := cd.Dataset.Members
	persons := make([]*PersonStats, len(members))
	index := make(map[string]*PersonStats, len(members))
	lines := make(map[string][]detailLine, len(members))
	for i, m := range members {
		p := &PersonStats{
			Name:       m.Name,
			Status:     m.Status,
			Group:      m.Status.Group(),
			ByCategory: make(map[model.Category]int),
		}
		persons[i] = p
		index[m.Name] = p
	}

	for _, a := range cd.Assignments {
		p, ok := index[a.Member]
		if !ok {
			continue
		}
		p.ByCategory[a.Category]++
		if !a.Category.Counted() {
			continue
		}
		p.Total++
		switch {
		case a.Category.AktivenSide():
			p.Aktiven++
		case a.Category.PhilisterSide():
			p.Philister++
		default:
			p.Unklare++
		}
		if semester == "" || a.Semester == semester {
			p.SemesterCount++
		}
		lines[a.Member] = append(lines[a.Member], detailLine{semester: a.Semester, entry: entryText(a)})
	}

	for _, p := range persons {
		p.Details = detailsText(lines[p.Name], maxLines)
	}
	return persons
}

func sortValue(p *PersonStats, by SortBy) int {
	switch by {
	case SortAktiven:
		return p.Aktiven
	case SortPhilister:
		return p.Philister
	case SortUnklare:
		return p.Unklare
	case SortSemester:
		return p.SemesterCount
	}
	return p.Total
}

// sortTable 按 by 降序，其次总数降序，最后名字升序；name 模式按名字升序
func sortTable(persons []*PersonStats, by SortBy) []*PersonStats {
	out := append([]*PersonStats{}, persons...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if by != SortName {
			if va, vb := sortValue(a, by), sortValue(b, by); va != vb {
				return va > vb
			}
			if a.Total != b.Total {
				return a.Total > b.Total
			}
		}
		return a.Name < b.Name
	})
	return out
}

// topN 按总数降序、名字升序取前 n
func topN(persons []*PersonStats, n int) []*PersonStats {
	ranked := sortTable(persons, SortTotal)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func buildAverages(persons []*PersonStats) Averages {
	var avg Averages
	total, aktiven, philister := 0, 0, 0
	for _, p := range persons {
		if p.Total == 0 {
			continue
		}
		avg.PersonsWithChargen++
		total += p.Total
		aktiven += p.Aktiven
		philister += p.Philister
	}
	avg.Total = ratio(total, avg.PersonsWithChargen)
	avg.Aktiven = ratio(aktiven, avg.PersonsWithChargen)
	avg.Philister = ratio(philister, avg.PersonsWithChargen)
	return avg
}
