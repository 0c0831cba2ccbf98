package classifier

import (
	"time"

	"albstats/internal/model"
	"albstats/internal/parser"
)

// RoleTable 角色名关键词表（子串匹配，比较前统一规范化）
type RoleTable struct {
	Funktionaere []string `toml:"funktionaere" json:"funktionaere"`
	Verband      []string `toml:"verband" json:"verband"`
	Philister    []string `toml:"philister" json:"philister"`
}

// DefaultRoleTable 默认关键词表
func DefaultRoleTable() RoleTable {
	return RoleTable{
		Funktionaere: []string{
			"chefredakteur", "chef red",
			"it beauftragter", "it bea",
			"verbindungsseelsorger", "verb seels",
			"vorsitzender des verbindungsgerichtes", "vg vors",
			"standesfuehrer", "standesfuhrer",
			"oecvnet", "oecv net",
			"archivar",
			"zirkel",
		},
		Verband: []string{
			"verband",
			"vorort",
			"oecv",
			"mkv",
			"kartell",
			"cartell",
		},
		Philister: []string{
			"philistersenior",
			"philisterconsenior",
			"philisterschriftfuehrer",
			"philisterkassier",
		},
	}
}

// Lookup 覆盖查询
type Lookup interface {
	Lookup(member, role, semester string) (model.Category, bool)
}

// Classifier Chargen 分类器
type Classifier struct {
	funktionaere []string
	verband      []string
	philister    []string
}

// New 创建分类器，空表使用默认值
func New(table RoleTable) *Classifier {
	def := DefaultRoleTable()
	if table.Funktionaere == nil {
		table.Funktionaere = def.Funktionaere
	}
	if table.Verband == nil {
		table.Verband = def.Verband
	}
	if table.Philister == nil {
		table.Philister = def.Philister
	}
	return &Classifier{
		funktionaere: normalizeAll(table.Funktionaere),
		verband:      normalizeAll(table.Verband),
		philister:    normalizeAll(table.Philister),
	}
}

func normalizeAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = parser.NormalizeForMatch(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// IsFunktionaer 是否为 Funktionaere 角色
func (c *Classifier) IsFunktionaer(role string) bool {
	return parser.MatchesKeyword(role, c.funktionaere)
}

// IsVerband 是否为 Verband 角色
func (c *Classifier) IsVerband(role string) bool {
	return parser.MatchesKeyword(role, c.verband)
}

// Classify 分类单条 Charge
func (c *Classifier) Classify(a model.RoleAssignment, m *model.Member, overrides Lookup) model.Category {
	cat, _ := c.classify(a, m, overrides)
	return cat
}

func (c *Classifier) classify(a model.RoleAssignment, m *model.Member, overrides Lookup) (model.Category, bool) {
	// 手动覆盖优先
	if overrides != nil {
		if cat, ok := overrides.Lookup(a.Member, a.Role, a.Semester); ok {
			return cat, true
		}
	}
	return c.Auto(a, m), false
}

// Auto 不考虑覆盖的自动分类
func (c *Classifier) Auto(a model.RoleAssignment, m *model.Member) model.Category {
	if c.IsFunktionaer(a.Role) {
		return model.CategoryFunktionaere
	}
	verband := c.IsVerband(a.Role)

	// 没有 Philistrierung 日期：归入 Aktiven 阶段
	if m == nil || !m.Philistrierung.OK {
		switch {
		case verband:
			return model.CategoryVerbandAktiven
		case parser.MatchesKeyword(a.Role, c.philister):
			return model.CategoryPhilister
		}
		return model.CategoryAktiven
	}

	sem, ok := model.ParseSemester(a.Semester)
	if !ok {
		return model.CategoryUnklare
	}
	if sem.Start().Before(m.Philistrierung.Time) {
		if verband {
			return model.CategoryVerbandAktiven
		}
		return model.CategoryAktiven
	}
	if verband {
		return model.CategoryVerbandPhilister
	}
	return model.CategoryPhilister
}

// ClassifyAll 对整个数据集分类，today 作为本次计算统一的参考日期
func (c *Classifier) ClassifyAll(ds *model.Dataset, overrides Lookup, today time.Time) *model.ClassifiedDataset {
	cd := &model.ClassifiedDataset{Dataset: ds, Today: today}
	if ds == nil {
		return cd
	}
	cd.Assignments = make([]model.ClassifiedAssignment, 0, len(ds.Assignments))
	for _, a := range ds.Assignments {
		m, _ := ds.Member(a.Member)
		auto := c.Auto(a, m)
		cat := auto
		overridden := false
		if overrides != nil {
			cat, overridden = overrides.Lookup(a.Member, a.Role, a.Semester)
			if !overridden {
				cat = auto
			}
		}
		cd.Assignments = append(cd.Assignments, model.ClassifiedAssignment{
			RoleAssignment: a,
			Category:       cat,
			Auto:           auto,
			Overridden:     overridden,
		})
	}
	return cd
}
