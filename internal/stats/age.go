package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"albstats/internal/model"
)

// AgeGroup 某状态组的年龄统计
type AgeGroup struct {
	Key      string         `json:"key"`
	Label    string         `json:"label"`
	Statuses []model.Status `json:"statuses,omitempty"`
	Members  int            `json:"members"` // 组内人数
	Count    int            `json:"count"`   // 有出生日期的人数
	Mean     *float64       `json:"mean"`
	Median   *float64       `json:"median"`
}

// AgeBin 年龄分段
type AgeBin struct {
	Label string `json:"label"`
	From  int    `json:"from"`
	To    int    `json:"to"` // 含
	Count int    `json:"count"`
}

// ageGroup 统计满足 include 的成员；缺少出生日期的成员不计入分子分母
func ageGroup(key, label string, members []model.Member, today time.Time, include func(model.Status) bool) AgeGroup {
	g := AgeGroup{Key: key, Label: label}
	var ages []float64
	for i := range members {
		m := &members[i]
		if !include(m.Status) {
			continue
		}
		g.Members++
		if age, ok := m.AgeAt(today); ok {
			ages = append(ages, age)
		}
	}
	g.Count = len(ages)
	g.Mean = mean(ages)
	g.Median = median(ages)
	return g
}

func buildAgeGroups(members []model.Member, today time.Time, custom []model.Status) []AgeGroup {
	selected := make(map[model.Status]bool, len(custom))
	codes := make([]string, 0, len(custom))
	for _, s := range custom {
		if !selected[s] {
			selected[s] = true
			codes = append(codes, string(s))
		}
	}
	customLabel := "Auswahl (keine)"
	if len(codes) > 0 {
		customLabel = "Auswahl (" + strings.Join(codes, " + ") + ")"
	}

	groups := []AgeGroup{
		ageGroup("all", "Alle", members, today, func(model.Status) bool { return true }),
		ageGroup("philister", "UP + BP + EM", members, today, model.Status.IsPhilister),
		ageGroup("aktivitas", "BU + FU", members, today, model.Status.IsAktivitas),
		ageGroup("custom", customLabel, members, today, func(s model.Status) bool { return selected[s] }),
	}
	groups[1].Statuses = []model.Status{model.StatusUP, model.StatusBP, model.StatusEM}
	groups[2].Statuses = []model.Status{model.StatusBU, model.StatusFU}
	groups[3].Statuses = custom
	return groups
}

// buildAgeBins 固定宽度分段 [k*w, (k+1)*w)，从最小到最大非空段连续输出
func buildAgeBins(members []model.Member, today time.Time, width int) []AgeBin {
	counts := make(map[int]int)
	lo, hi := math.MaxInt, math.MinInt
	for i := range members {
		age, ok := members[i].AgeAt(today)
		if !ok || age < 0 {
			continue
		}
		k := int(math.Floor(age / float64(width)))
		counts[k]++
		lo = min(lo, k)
		hi = max(hi, k)
	}
	if len(counts) == 0 {
		return []AgeBin{}
	}
	bins := make([]AgeBin, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		from, to := k*width, (k+1)*width-1
		label := fmt.Sprintf("%d-%d", from, to)
		if width == 1 {
			label = fmt.Sprintf("%d", from)
		}
		bins = append(bins, AgeBin{Label: label, From: from, To: to, Count: counts[k]})
	}
	return bins
}
