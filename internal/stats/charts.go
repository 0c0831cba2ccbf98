package stats

import (
	"sort"

	"albstats/internal/model"
)

// CategoryBar 分类图中的一人
type CategoryBar struct {
	Name    string                 `json:"name"`
	Group   model.PersonGroup      `json:"group"`
	Counts  map[model.Category]int `json:"counts"`
	Sum     int                    `json:"sum"`
	Details string                 `json:"details"`
}

// RoleTotal 角色总数
type RoleTotal struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// RoleBar 角色排行中的一人
type RoleBar struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Details string `json:"details"`
}

// RoleRanking 角色统计
type RoleRanking struct {
	Selected []string    `json:"selected"`
	Totals   []RoleTotal `json:"totals"`
	Persons  []RoleBar   `json:"persons"`
}

// buildCategoryChart 所选分类、所选人员分组的逐人计数，按合计排序取前 limit
func buildCategoryChart(cd *model.ClassifiedDataset, f Filters, maxLines int) []CategoryBar {
	cats := make(map[model.Category]bool, len(f.Categories))
	for _, c := range f.Categories {
		cats[c] = true
	}
	groups := make(map[model.PersonGroup]bool, len(f.PersonGroups))
	for _, g := range f.PersonGroups {
		groups[g] = true
	}

	bars := make(map[string]*CategoryBar)
	lines := make(map[string][]detailLine)
	var order []string
	for _, a := range cd.Assignments {
		if !cats[a.Category] {
			continue
		}
		m, ok := cd.Dataset.Member(a.Member)
		if !ok {
			continue
		}
		group := m.Status.Group()
		if !groups[group] {
			continue
		}
		bar, ok := bars[a.Member]
		if !ok {
			bar = &CategoryBar{Name: a.Member, Group: group, Counts: make(map[model.Category]int)}
			bars[a.Member] = bar
			order = append(order, a.Member)
		}
		bar.Counts[a.Category]++
		bar.Sum++
		lines[a.Member] = append(lines[a.Member], detailLine{semester: a.Semester, entry: entryText(a)})
	}

	out := make([]CategoryBar, 0, len(order))
	for _, name := range order {
		bar := bars[name]
		bar.Details = detailsText(lines[name], maxLines)
		out = append(out, *bar)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Sum != out[j].Sum {
			return out[i].Sum > out[j].Sum
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// buildRoleRanking 角色总数排行，以及所选角色（未选 = 全部）下的逐人排行
func buildRoleRanking(cd *model.ClassifiedDataset, persons []*PersonStats, f Filters) RoleRanking {
	selected := make(map[string]bool, len(f.Roles))
	for _, r := range f.Roles {
		if r != "" {
			selected[r] = true
		}
	}

	totals := make(map[string]int)
	perPerson := make(map[string]int)
	for _, a := range cd.Assignments {
		if !a.Category.Counted() {
			continue
		}
		totals[a.Role]++
		if len(selected) == 0 || selected[a.Role] {
			perPerson[a.Member]++
		}
	}

	ranking := RoleRanking{Selected: []string{}, Totals: make([]RoleTotal, 0, len(totals)), Persons: []RoleBar{}}
	for r := range selected {
		ranking.Selected = append(ranking.Selected, r)
	}
	sort.Strings(ranking.Selected)
	for role, n := range totals {
		ranking.Totals = append(ranking.Totals, RoleTotal{Role: role, Count: n})
	}
	sort.Slice(ranking.Totals, func(i, j int) bool {
		if ranking.Totals[i].Count != ranking.Totals[j].Count {
			return ranking.Totals[i].Count > ranking.Totals[j].Count
		}
		return ranking.Totals[i].Role < ranking.Totals[j].Role
	})

	details := make(map[string]string, len(persons))
	for _, p := range persons {
		details[p.Name] = p.Details
	}
	for name, n := range perPerson {
		ranking.Persons = append(ranking.Persons, RoleBar{Name: name, Count: n, Details: details[name]})
	}
	sort.Slice(ranking.Persons, func(i, j int) bool {
		if ranking.Persons[i].Count != ranking.Persons[j].Count {
			return ranking.Persons[i].Count > ranking.Persons[j].Count
		}
		return ranking.Persons[i].Name < ranking.Persons[j].Name
	})
	if len(ranking.Persons) > f.Limit {
		ranking.Persons = ranking.Persons[:f.Limit]
	}
	return ranking
}

// Candidate 可手动覆盖的角色
type Candidate struct {
	Role       string         `json:"role"`
	Count      int            `json:"count"`
	Auto       model.Category `json:"auto"`
	AutoLabel  string         `json:"autoLabel"`
	Unclear    bool           `json:"unclear"`
	Overridden int            `json:"overridden"`
}

// Candidates 覆盖候选列表与仍未解决的 unklare 条目
type Candidates struct {
	All     []Candidate `json:"all"`
	Unclear []Candidate `json:"unclear"`
}

// BuildCandidates 每个角色的出现次数、多数自动分类，以及是否存在未覆盖的 unklare
func BuildCandidates(cd *model.ClassifiedDataset) Candidates {
	type acc struct {
		count, overridden, unclear int
		auto                       map[model.Category]int
	}
	byRole := make(map[string]*acc)
	for _, a := range cd.Assignments {
		c, ok := byRole[a.Role]
		if !ok {
			c = &acc{auto: make(map[model.Category]int)}
			byRole[a.Role] = c
		}
		c.count++
		c.auto[a.Auto]++
		if a.Overridden {
			c.overridden++
		} else if a.Auto == model.CategoryUnklare {
			c.unclear++
		}
	}

	out := Candidates{All: make([]Candidate, 0, len(byRole)), Unclear: []Candidate{}}
	for role, c := range byRole {
		cand := Candidate{
			Role:       role,
			Count:      c.count,
			Auto:       majority(c.auto),
			Unclear:    c.unclear > 0,
			Overridden: c.overridden,
		}
		cand.AutoLabel = cand.Auto.Label()
		out.All = append(out.All, cand)
		if cand.Unclear {
			u := cand
			u.Count = c.unclear
			out.Unclear = append(out.Unclear, u)
		}
	}
	byCount := func(list []Candidate) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Role < list[j].Role
		})
	}
	byCount(out.All)
	byCount(out.Unclear)
	return out
}

// majority 出现最多的分类，并列时取分类名较小者
func majority(counts map[model.Category]int) model.Category {
	best, bestN := model.CategoryUnklare, 0
	for cat, n := range counts {
		if n > bestN || (n == bestN && cat < best) {
			best, bestN = cat, n
		}
	}
	return best
}
