package stats

import (
	"math"
	"sort"
	"strings"

	"albstats/internal/model"
	"albstats/internal/parser"
)

// MandatorySlot 每学期应有的 Charge
type MandatorySlot string

const (
	SlotSenior                  MandatorySlot = "senior"
	SlotConsenior               MandatorySlot = "consenior"
	SlotSchriftfuehrer          MandatorySlot = "schriftfuehrer"
	SlotFuchsmajor              MandatorySlot = "fuchsmajor"
	SlotKassier                 MandatorySlot = "kassier"
	SlotBarwart                 MandatorySlot = "barwart"
	SlotPhilistersenior         MandatorySlot = "philistersenior"
	SlotPhilisterconsenior      MandatorySlot = "philisterconsenior"
	SlotPhilisterschriftfuehrer MandatorySlot = "philisterschriftfuehrer"
	SlotPhilisterkassier        MandatorySlot = "philisterkassier"
)

// MandatorySlots 展示顺序（Aktive 6 + Philister 4）
var MandatorySlots = []MandatorySlot{
	SlotSenior, SlotConsenior, SlotSchriftfuehrer, SlotFuchsmajor, SlotKassier, SlotBarwart,
	SlotPhilistersenior, SlotPhilisterconsenior, SlotPhilisterschriftfuehrer, SlotPhilisterkassier,
}

var slotLabels = map[MandatorySlot]string{
	SlotSenior:                  "Senior",
	SlotConsenior:               "Consenior",
	SlotSchriftfuehrer:          "Schriftfuehrer",
	SlotFuchsmajor:              "Fuchsmajor",
	SlotKassier:                 "Kassier",
	SlotBarwart:                 "Barwart",
	SlotPhilistersenior:         "Philistersenior",
	SlotPhilisterconsenior:      "Philisterconsenior",
	SlotPhilisterschriftfuehrer: "Philisterschriftfuehrer",
	SlotPhilisterkassier:        "Philisterkassier",
}

// Label 显示名
func (s MandatorySlot) Label() string {
	return slotLabels[s]
}

// SlotForRole 角色对应的必设岗位，按词元匹配
func SlotForRole(role string) (MandatorySlot, bool) {
	tokens := strings.Fields(parser.NormalizeForMatch(role))
	if len(tokens) == 0 {
		return "", false
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	hasPrefix := func(prefix string) bool {
		for _, t := range tokens {
			if strings.HasPrefix(t, prefix) {
				return true
			}
		}
		return false
	}
	phil := set["philister"]

	switch {
	case hasPrefix("philisterconsenior") || (phil && hasPrefix("consenior")):
		return SlotPhilisterconsenior, true
	case hasPrefix("philisterschriftfuehrer") || (phil && hasPrefix("schriftfuehrer")):
		return SlotPhilisterschriftfuehrer, true
	case hasPrefix("philisterkassier") || (phil && hasPrefix("kassier")):
		return SlotPhilisterkassier, true
	case hasPrefix("philistersenior") || (phil && set["senior"]):
		return SlotPhilistersenior, true
	case set["consenior"]:
		return SlotConsenior, true
	case set["senior"]:
		return SlotSenior, true
	case set["schriftfuehrer"]:
		return SlotSchriftfuehrer, true
	case set["fuchsmajor"] || set["fm"] || hasNumberedFM(tokens):
		return SlotFuchsmajor, true
	case set["kassier"]:
		return SlotKassier, true
	case set["barwart"]:
		return SlotBarwart, true
	}
	return "", false
}

// hasNumberedFM fm2、fm3 …
func hasNumberedFM(tokens []string) bool {
	for _, t := range tokens {
		if len(t) > 2 && strings.HasPrefix(t, "fm") && strings.Trim(t[2:], "0123456789") == "" {
			return true
		}
	}
	return false
}

// SemesterSlots 单学期必设岗位情况
type SemesterSlots struct {
	Semester        string   `json:"semester"`
	Year            int      `json:"year"`
	Expected        int      `json:"expected"`
	Filled          int      `json:"filled"`
	Missing         int      `json:"missing"`
	MissingPct      float64  `json:"missingPct"`
	RecordedEntries int      `json:"recordedEntries"`
	Reliable        bool     `json:"reliable"`
	FilledRoles     []string `json:"filledRoles"`
	MissingRoles    []string `json:"missingRoles"`
}

// YearSlots 按年汇总
type YearSlots struct {
	Year                    int      `json:"year"`
	Expected                int      `json:"expected"`
	Filled                  int      `json:"filled"`
	Missing                 int      `json:"missing"`
	MissingPct              float64  `json:"missingPct"`
	Semesters               int      `json:"semesters"`
	SemestersWithoutEntries int      `json:"semestersWithoutEntries"`
	ReliableSemesters       int      `json:"reliableSemesters"`
	FilledRoles             []string `json:"filledRoles"`
}

// MandatoryReport 必设岗位缺口
type MandatoryReport struct {
	Threshold int             `json:"threshold"`
	Semesters []SemesterSlots `json:"semesters"`
	Years     []YearSlots     `json:"years"`
}

// reliableThreshold clamp(round(0.75 × 非零条目数中位数), 2, 6)
func reliableThreshold(recorded []int) int {
	var nonzero []float64
	for _, n := range recorded {
		if n > 0 {
			nonzero = append(nonzero, float64(n))
		}
	}
	med := median(nonzero)
	if med == nil {
		return 0
	}
	t := int(math.Round(*med * 0.75))
	return max(2, min(6, t))
}

// buildMandatory 学期范围取计入统计的已知学期首尾；Verband 与 Funktionaere 不参与
func buildMandatory(cd *model.ClassifiedDataset) MandatoryReport {
	report := MandatoryReport{Semesters: []SemesterSlots{}, Years: []YearSlots{}}

	var first, last model.Semester
	found := false
	recorded := make(map[model.Semester]int)
	filled := make(map[model.Semester]map[MandatorySlot]bool)
	for _, a := range cd.Assignments {
		if !a.Category.Counted() {
			continue
		}
		sem, ok := model.ParseSemester(a.Semester)
		if !ok {
			continue
		}
		if !found || sem.Before(first) {
			first = sem
		}
		if !found || last.Before(sem) {
			last = sem
		}
		found = true

		if a.Category == model.CategoryVerbandAktiven || a.Category == model.CategoryVerbandPhilister {
			continue
		}
		recorded[sem]++
		if slot, ok := SlotForRole(a.Role); ok {
			if filled[sem] == nil {
				filled[sem] = make(map[MandatorySlot]bool)
			}
			filled[sem][slot] = true
		}
	}
	if !found || len(recorded) == 0 {
		return report
	}

	expected := len(MandatorySlots)
	counts := make([]int, 0)
	for _, sem := range model.SemesterRange(first, last) {
		row := SemesterSlots{
			Semester:        sem.String(),
			Year:            sem.Year,
			Expected:        expected,
			RecordedEntries: recorded[sem],
			FilledRoles:     []string{},
			MissingRoles:    []string{},
		}
		for _, slot := range MandatorySlots {
			if filled[sem][slot] {
				row.Filled++
				row.FilledRoles = append(row.FilledRoles, slot.Label())
			} else {
				row.MissingRoles = append(row.MissingRoles, slot.Label())
			}
		}
		row.Missing = expected - row.Filled
		row.MissingPct = float64(row.Missing) * 100 / float64(expected)
		report.Semesters = append(report.Semesters, row)
		counts = append(counts, row.RecordedEntries)
	}

	report.Threshold = reliableThreshold(counts)
	for i := range report.Semesters {
		report.Semesters[i].Reliable = report.Semesters[i].RecordedEntries >= report.Threshold
	}
	report.Years = rollupYears(report.Semesters)
	return report
}

func rollupYears(semesters []SemesterSlots) []YearSlots {
	byYear := make(map[int]*YearSlots)
	roles := make(map[int]map[string]bool)
	for _, s := range semesters {
		y, ok := byYear[s.Year]
		if !ok {
			y = &YearSlots{Year: s.Year}
			byYear[s.Year] = y
			roles[s.Year] = make(map[string]bool)
		}
		y.Expected += s.Expected
		y.Filled += s.Filled
		y.Missing += s.Missing
		y.Semesters++
		if s.RecordedEntries == 0 {
			y.SemestersWithoutEntries++
		}
		if s.Reliable {
			y.ReliableSemesters++
		}
		for _, r := range s.FilledRoles {
			roles[s.Year][r] = true
		}
	}

	out := make([]YearSlots, 0, len(byYear))
	for year, y := range byYear {
		y.FilledRoles = []string{}
		for _, slot := range MandatorySlots {
			if roles[year][slot.Label()] {
				y.FilledRoles = append(y.FilledRoles, slot.Label())
			}
		}
		if y.Expected > 0 {
			y.MissingPct = float64(y.Missing) * 100 / float64(y.Expected)
		}
		out = append(out, *y)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
