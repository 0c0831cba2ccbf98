package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albstats/internal/model"
)

var today = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func ca(member, sem, role string, cat model.Category) model.ClassifiedAssignment {
	entry := role
	if sem != model.UnknownSemester {
		entry = role + " (" + sem + ")"
	}
	return model.ClassifiedAssignment{
		RoleAssignment: model.RoleAssignment{Member: member, Semester: sem, Role: role, Entry: entry},
		Category:       cat,
		Auto:           cat,
	}
}

// fixture Anton（UP，20 岁）、Berta（BU，24 岁）、Caesar（FU，无生日、无 Chargen）
func fixture() *model.ClassifiedDataset {
	members := []model.Member{
		{
			Name:           "Anton",
			Status:         model.StatusUP,
			BirthDate:      model.NewDate(2004, time.January, 1),
			ReceptionDate:  model.NewDate(2020, time.January, 1),
			Philistrierung: model.NewDate(2023, time.March, 1),
		},
		{Name: "Berta", Status: model.StatusBU, BirthDate: model.NewDate(2000, time.January, 1)},
		{Name: "Caesar", Status: model.StatusFU},
	}
	ds := model.NewDataset("fixture.xlsx", members, nil, nil)
	return &model.ClassifiedDataset{
		Dataset: ds,
		Today:   today,
		Assignments: []model.ClassifiedAssignment{
			ca("Anton", "WS 2019/20", "Senior", model.CategoryAktiven),
			ca("Anton", "SS 2021", "Kassier", model.CategoryAktiven),
			ca("Anton", "SS 2023", "Philistersenior", model.CategoryPhilister),
			ca("Anton", "SS 2022", "Zirkel", model.CategoryFunktionaere),
			ca("Berta", "SS 2022", "Barwart", model.CategoryAktiven),
			ca("Berta", "WS 2022/23", "Consenior", model.CategoryAktiven),
			ca("Berta", model.UnknownSemester, "Fuchsmajor", model.CategoryUnklare),
		},
	}
}

func TestAggregate_AgeExcludesMissingBirthDates(t *testing.T) {
	b := Aggregate(fixture(), Filters{Statuses: []model.Status{model.StatusBU, model.StatusFU}}, DefaultOptions())

	require.Len(t, b.AgeGroups, 4)
	all := b.AgeGroups[0]
	assert.Equal(t, 3, all.Members)
	assert.Equal(t, 2, all.Count)
	require.NotNil(t, all.Mean)
	require.NotNil(t, all.Median)
	assert.InDelta(t, 22.0, *all.Mean, 0.01)
	assert.InDelta(t, 22.0, *all.Median, 0.01)

	phil := b.AgeGroups[1]
	assert.Equal(t, 1, phil.Count)
	assert.InDelta(t, 20.0, *phil.Mean, 0.01)

	custom := b.AgeGroups[3]
	assert.Equal(t, "Auswahl (BU + FU)", custom.Label)
	assert.Equal(t, 2, custom.Members)
	assert.Equal(t, 1, custom.Count)
	assert.InDelta(t, 24.0, *custom.Mean, 0.01)

	empty := Aggregate(fixture(), Filters{}, DefaultOptions()).AgeGroups[3]
	assert.Equal(t, 0, empty.Members)
	assert.Nil(t, empty.Mean)
	assert.Nil(t, empty.Median)
}

func TestAggregate_AgeBinsAreContiguous(t *testing.T) {
	opts := DefaultOptions()
	opts.AgeBinWidth = 2
	b := Aggregate(fixture(), Filters{}, opts)

	want := []AgeBin{
		{Label: "20-21", From: 20, To: 21, Count: 1},
		{Label: "22-23", From: 22, To: 23, Count: 0},
		{Label: "24-25", From: 24, To: 25, Count: 1},
	}
	if diff := cmp.Diff(want, b.AgeBins); diff != "" {
		t.Fatalf("age bins mismatch (-want +got):\n%s", diff)
	}

	b = Aggregate(fixture(), Filters{}, DefaultOptions())
	assert.Equal(t, []AgeBin{{Label: "20-24", From: 20, To: 24, Count: 2}}, b.AgeBins)
}

func TestAggregate_StatusDistribution(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())
	assert.Equal(t, 3, b.StatusShares.Total)
	require.Len(t, b.StatusShares.Shares, 3)
	assert.Equal(t, model.StatusBU, b.StatusShares.Shares[0].Status)
	assert.InDelta(t, 33.33, b.StatusShares.Shares[0].Percent, 0.01)
	assert.Equal(t, []model.Status{model.StatusBU, model.StatusFU, model.StatusUP}, b.StatusValues)
}

func TestAggregate_PersonTotalsAndAverages(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())

	require.Len(t, b.Table, 3)
	names := []string{b.Table[0].Name, b.Table[1].Name, b.Table[2].Name}
	assert.Equal(t, []string{"Anton", "Berta", "Caesar"}, names)

	anton := b.Table[0]
	assert.Equal(t, 3, anton.Total)
	assert.Equal(t, 2, anton.Aktiven)
	assert.Equal(t, 1, anton.Philister)
	assert.Equal(t, 1, anton.ByCategory[model.CategoryFunktionaere])

	berta := b.Table[1]
	assert.Equal(t, 1, berta.Unklare)
	assert.Equal(t, "SS 2022: Barwart (SS 2022)\nWS 2022/23: Consenior (WS 2022/23)\nFuchsmajor", berta.Details)
	assert.Equal(t, NoDetails, b.Table[2].Details)

	assert.Equal(t, 2, b.Averages.PersonsWithChargen)
	assert.InDelta(t, 3.0, *b.Averages.Total, 1e-9)
	assert.InDelta(t, 2.0, *b.Averages.Aktiven, 1e-9)
	assert.InDelta(t, 0.5, *b.Averages.Philister, 1e-9)
}

func TestAggregate_SemesterFilterAndSort(t *testing.T) {
	b := Aggregate(fixture(), Filters{Semester: "SS2022", SortBy: SortSemester}, DefaultOptions())
	assert.Equal(t, "SS 2022", b.Semester)
	require.NotEmpty(t, b.Table)
	assert.Equal(t, "Berta", b.Table[0].Name)
	assert.Equal(t, 1, b.Table[0].SemesterCount)
	assert.Equal(t, 0, b.Table[1].SemesterCount)

	b = Aggregate(fixture(), Filters{SortBy: SortName}, DefaultOptions())
	assert.Equal(t, "Anton", b.Table[0].Name)
	assert.Equal(t, "Caesar", b.Table[2].Name)

	assert.Equal(t, []string{"WS 2019/20", "SS 2021", "SS 2022", "WS 2022/23", "SS 2023", model.UnknownSemester}, b.SemesterValues)
}

func TestAggregate_IntensityAndPercentile(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())

	require.Len(t, b.Intensity, 2)
	berta, anton := b.Intensity[0], b.Intensity[1]
	assert.Equal(t, "Berta", berta.Name)
	assert.Equal(t, BasisSemesterSpan, berta.BasisSource)
	assert.InDelta(t, 1.0, berta.BasisYears, 1e-9)
	assert.InDelta(t, 3.0, berta.PerYear, 1e-9)
	assert.True(t, berta.Standout)

	assert.Equal(t, BasisReception, anton.BasisSource)
	assert.Equal(t, "2020-01-01", anton.Reception)
	assert.InDelta(t, 0.75, anton.PerYear, 0.001)
	assert.InDelta(t, 0.25, anton.PhilPerYear, 0.001)
	assert.False(t, anton.Standout)

	require.NotNil(t, b.Percentiles.IntensityCutoff)
	assert.InDelta(t, 3.0, *b.Percentiles.IntensityCutoff, 1e-9)
	require.NotNil(t, b.Percentiles.TotalCutoff)
	assert.InDelta(t, 3.0, *b.Percentiles.TotalCutoff, 1e-9)

	// 只看 Philister 部分时 Anton 排在前面
	b = Aggregate(fixture(), Filters{IntensityParts: []IntensityPart{PartPhilister}}, DefaultOptions())
	assert.Equal(t, "Anton", b.IntensityTop[0].Name)
}

func TestAggregate_IntensityMinimumOneYear(t *testing.T) {
	cd := fixture()
	cd.Dataset.Members[0].ReceptionDate = model.NewDate(2023, time.October, 1)
	b := Aggregate(cd, Filters{}, DefaultOptions())
	for _, it := range b.Intensity {
		if it.Name == "Anton" {
			assert.Equal(t, BasisReception, it.BasisSource)
			assert.InDelta(t, 1.0, it.BasisYears, 1e-9)
			assert.InDelta(t, 3.0, it.PerYear, 1e-9)
		}
	}
}

func TestAggregate_CategoryChartAndRoles(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())
	require.Len(t, b.CategoryChart, 2)
	assert.Equal(t, "Anton", b.CategoryChart[0].Name)
	assert.Equal(t, 2, b.CategoryChart[0].Sum)

	b = Aggregate(fixture(), Filters{PersonGroups: []model.PersonGroup{model.GroupAktive}}, DefaultOptions())
	require.Len(t, b.CategoryChart, 1)
	assert.Equal(t, "Berta", b.CategoryChart[0].Name)

	b = Aggregate(fixture(), Filters{Categories: []model.Category{model.CategoryFunktionaere}}, DefaultOptions())
	require.Len(t, b.CategoryChart, 1)
	assert.Equal(t, 1, b.CategoryChart[0].Counts[model.CategoryFunktionaere])

	b = Aggregate(fixture(), Filters{Roles: []string{"Senior"}}, DefaultOptions())
	assert.Equal(t, []RoleBar{{Name: "Anton", Count: 1, Details: b.Table[0].Details}}, b.RoleRanking.Persons)
	assert.Len(t, b.RoleRanking.Totals, 6)
	assert.NotContains(t, b.RoleValues, "Zirkel")
}

func TestAggregate_MandatorySlots(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())
	m := b.Mandatory

	assert.Equal(t, 2, m.Threshold)
	require.Len(t, m.Semesters, 8)
	first := m.Semesters[0]
	assert.Equal(t, "WS 2019/20", first.Semester)
	assert.Equal(t, 1, first.Filled)
	assert.Equal(t, 9, first.Missing)
	assert.Equal(t, []string{"Senior"}, first.FilledRoles)
	assert.False(t, first.Reliable)
	assert.Equal(t, "SS 2023", m.Semesters[7].Semester)

	require.Len(t, m.Years, 5)
	y2022 := m.Years[3]
	assert.Equal(t, 2022, y2022.Year)
	assert.Equal(t, 20, y2022.Expected)
	assert.Equal(t, 2, y2022.Filled)
	assert.Equal(t, []string{"Consenior", "Barwart"}, y2022.FilledRoles)
	assert.Equal(t, 2, m.Years[1].SemestersWithoutEntries)
}

func TestAggregate_Candidates(t *testing.T) {
	b := Aggregate(fixture(), Filters{}, DefaultOptions())
	require.Len(t, b.Candidates.Unclear, 1)
	assert.Equal(t, "Fuchsmajor", b.Candidates.Unclear[0].Role)
	assert.Len(t, b.Candidates.All, 7)
}

func TestAggregate_EmptyDataset(t *testing.T) {
	b := Aggregate(nil, Filters{}, Options{})
	assert.Equal(t, 0, b.Members)
	assert.Empty(t, b.Table)
	assert.Empty(t, b.AgeBins)
	assert.Nil(t, b.Averages.Total)
	assert.Nil(t, b.Percentiles.IntensityCutoff)
	assert.Equal(t, 0, b.Mandatory.Threshold)
}

func TestTopN_SortedAndBounded(t *testing.T) {
	var members []model.Member
	var assignments []model.ClassifiedAssignment
	for i := 0; i < 25; i++ {
		name := fmt.Sprintf("M%02d", 24-i)
		members = append(members, model.Member{Name: name, Status: model.StatusBU})
		for j := 0; j < i%7; j++ {
			assignments = append(assignments, ca(name, fmt.Sprintf("SS %d", 2000+j), "Barwart", model.CategoryAktiven))
		}
	}
	cd := &model.ClassifiedDataset{
		Dataset:     model.NewDataset("x", members, nil, nil),
		Assignments: assignments,
		Today:       today,
	}

	b := Aggregate(cd, Filters{}, DefaultOptions())
	require.Len(t, b.Top, 20)
	for i := 1; i < len(b.Top); i++ {
		prev, cur := b.Top[i-1], b.Top[i]
		if prev.Total == cur.Total {
			assert.Less(t, prev.Name, cur.Name)
		} else {
			assert.Greater(t, prev.Total, cur.Total)
		}
	}
}

func TestDetailsTextTruncates(t *testing.T) {
	lines := []detailLine{
		{semester: "SS 2021", entry: "b"},
		{semester: "WS 2019/20", entry: "a"},
		{semester: "SS 2021", entry: "b"},
		{semester: "SS 2022", entry: "c"},
	}
	assert.Equal(t, "WS 2019/20: a\nSS 2021: b\n... (+1 weitere)", detailsText(lines, 2))
}

func TestSlotForRole(t *testing.T) {
	cases := map[string]MandatorySlot{
		"Senior":                 SlotSenior,
		"Consenior":              SlotConsenior,
		"Philister-Senior":       SlotPhilistersenior,
		"Philisterschriftführer": SlotPhilisterschriftfuehrer,
		"FM2":                    SlotFuchsmajor,
		"Kassier (OV)":           SlotKassier,
		"Philister Kassier":      SlotPhilisterkassier,
	}
	for role, want := range cases {
		got, ok := SlotForRole(role)
		require.True(t, ok, role)
		assert.Equal(t, want, got, role)
	}
	_, ok := SlotForRole("Zirkel")
	assert.False(t, ok)
}

func TestQuantileEmpirical(t *testing.T) {
	q := quantile([]float64{5, 1, 3, 2, 4}, 0.9)
	require.NotNil(t, q)
	assert.InDelta(t, 5.0, *q, 1e-9)
	assert.Nil(t, quantile(nil, 0.9))
}
