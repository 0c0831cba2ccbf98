package stats

import (
	"sort"
	"time"

	"albstats/internal/model"
)

// Bundle 一次计算的全部统计结果
type Bundle struct {
	DatasetID   string    `json:"datasetId"`
	Source      string    `json:"source"`
	Today       time.Time `json:"today"`
	Members     int       `json:"members"`
	Assignments int       `json:"assignments"`
	Semester    string    `json:"semester"`
	SortBy      SortBy    `json:"sortBy"`
	Limit       int       `json:"limit"`

	AgeGroups    []AgeGroup         `json:"ageGroups"`
	AgeBins      []AgeBin           `json:"ageBins"`
	StatusShares StatusDistribution `json:"statusDistribution"`

	Table        []*PersonStats `json:"table"`
	Top          []*PersonStats `json:"top"`
	Averages     Averages       `json:"averages"`
	Intensity    []Intensity    `json:"intensity"`
	IntensityTop []Intensity    `json:"intensityTop"`
	Percentiles  Percentiles    `json:"percentiles"`

	CategoryChart []CategoryBar   `json:"categoryChart"`
	RoleRanking   RoleRanking     `json:"roleRanking"`
	Mandatory     MandatoryReport `json:"mandatory"`
	Candidates    Candidates      `json:"candidates"`

	SemesterValues []string       `json:"semesterValues"`
	StatusValues   []model.Status `json:"statusValues"`
	RoleValues     []string       `json:"roleValues"`
	Categories     []CategoryInfo `json:"categories"`
	Warnings       []string       `json:"warnings,omitempty"`
}

// CategoryInfo 分类及其计数（全部 Chargen 记录）
type CategoryInfo struct {
	Category model.Category `json:"category"`
	Label    string         `json:"label"`
	Count    int            `json:"count"`
	Counted  bool           `json:"counted"`
	Manual   bool           `json:"manual"`
	Selected bool           `json:"selected"`
}

// Aggregate 由分类后的数据集、筛选条件与参数计算全部统计；只读，不保留状态
func Aggregate(cd *model.ClassifiedDataset, f Filters, opts Options) *Bundle {
	opts = opts.withDefaults()
	f = f.normalize(opts)

	if cd == nil || cd.Dataset == nil {
		cd = &model.ClassifiedDataset{Dataset: model.NewDataset("", nil, nil, nil), Today: time.Now()}
	}
	ds := cd.Dataset

	b := &Bundle{
		DatasetID:   ds.ID,
		Source:      ds.Source,
		Today:       cd.Today,
		Members:     len(ds.Members),
		Assignments: len(cd.Assignments),
		Semester:    f.Semester,
		SortBy:      f.SortBy,
		Limit:       f.Limit,
		Warnings:    ds.Warnings,
	}

	b.AgeGroups = buildAgeGroups(ds.Members, cd.Today, f.Statuses)
	b.AgeBins = buildAgeBins(ds.Members, cd.Today, opts.AgeBinWidth)
	b.StatusShares = buildStatusDistribution(ds.Members)

	persons := buildPersons(cd, f.Semester, opts.MaxDetailLines)
	b.Table = sortTable(persons, f.SortBy)
	b.Top = topN(persons, opts.TopN)
	b.Averages = buildAverages(persons)

	b.Intensity = buildIntensity(cd, f.IntensityParts)
	b.Percentiles = markStandouts(b.Intensity, persons, f.Percentile)
	b.IntensityTop = intensityChart(b.Intensity, f.Limit)

	b.CategoryChart = buildCategoryChart(cd, f, opts.MaxDetailLines)
	b.RoleRanking = buildRoleRanking(cd, persons, f)
	b.Mandatory = buildMandatory(cd)
	b.Candidates = BuildCandidates(cd)

	b.SemesterValues = semesterValues(cd)
	b.StatusValues = statusValues(ds.Members)
	b.RoleValues = make([]string, 0, len(b.RoleRanking.Totals))
	for _, rt := range b.RoleRanking.Totals {
		b.RoleValues = append(b.RoleValues, rt.Role)
	}
	b.Categories = categoryInfo(cd, f.Categories)
	return b
}

func semesterValues(cd *model.ClassifiedDataset) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, a := range cd.Assignments {
		if !a.Category.Counted() || seen[a.Semester] {
			continue
		}
		seen[a.Semester] = true
		out = append(out, a.Semester)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return model.CompareSemesterLabels(out[i], out[j]) < 0
	})
	return out
}

func statusValues(members []model.Member) []model.Status {
	seen := make(map[model.Status]bool)
	out := []model.Status{}
	for _, m := range members {
		if m.Status == "" || seen[m.Status] {
			continue
		}
		seen[m.Status] = true
		out = append(out, m.Status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func categoryInfo(cd *model.ClassifiedDataset, selected []model.Category) []CategoryInfo {
	counts := make(map[model.Category]int)
	for _, a := range cd.Assignments {
		counts[a.Category]++
	}
	sel := make(map[model.Category]bool, len(selected))
	for _, c := range selected {
		sel[c] = true
	}
	out := make([]CategoryInfo, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		out = append(out, CategoryInfo{
			Category: c,
			Label:    c.Label(),
			Count:    counts[c],
			Counted:  c.Counted(),
			Manual:   c.Manual(),
			Selected: sel[c],
		})
	}
	return out
}
