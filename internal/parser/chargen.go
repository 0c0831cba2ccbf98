package parser

import (
	"regexp"
	"strings"
	"time"

	"albstats/internal/model"
)

var (
	explicitSemesterRe = regexp.MustCompile(`(?i)\((SS\s*\d{4}|WS\s*\d{4}(?:\s*/\s*\d{2,4})?)\)`)
	dateTokenRe        = regexp.MustCompile(`\d{1,2}\.\s*(?:\d{1,2}|\p{L}+)\.?\s*\d{4}`)
	vonRe              = regexp.MustCompile(`(?i)\bvon\b`)
	bisRe              = regexp.MustCompile(`(?i)\bbis\b`)
	abRe               = regexp.MustCompile(`(?i)\bab\b`)
	parenGroupRe       = regexp.MustCompile(`\(([^)]*)\)`)
	yearRe             = regexp.MustCompile(`\d{4}`)
)

// 括号内出现这些词时视为日期/学期说明，从角色名中去掉
var dateWords = wordSet(
	"ss", "ws", "von", "bis", "ab", "heute", "seit",
	"jan", "jaen", "jaenner", "januar", "feb", "februar", "mrz", "maerz", "apr", "april",
	"mai", "jun", "juni", "jul", "juli", "aug", "august", "sep", "sept", "september",
	"okt", "oktober", "nov", "november", "dez", "dezember",
)

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// SplitEntries 拆分 Chargen 单元格：以 "|" 或换行分隔，丢弃空项
func SplitEntries(cell string) []string {
	cell = strings.ReplaceAll(cell, "\r\n", "\n")
	cell = strings.ReplaceAll(cell, "\n", "|")
	parts := strings.Split(cell, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = NormalizeText(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractSemesters 提取条目覆盖的学期标签
// 1. 括号中的显式学期 (SS 2021)/(WS 2019/20)
// 2. "von <日期> bis <日期>"：区间内的全部学期
// 3. "ab <日期>"：到 today 为止
// 4. 只有 "bis <日期>"：该日期所在学期
// 都不满足时返回 Ohne Semester
func ExtractSemesters(entry string, today time.Time) []string {
	if matches := explicitSemesterRe.FindAllStringSubmatch(entry, -1); len(matches) > 0 {
		seen := make(map[string]bool, len(matches))
		out := make([]string, 0, len(matches))
		for _, m := range matches {
			label := model.CanonicalSemester(m[1])
			if seen[label] {
				continue
			}
			seen[label] = true
			out = append(out, label)
		}
		return out
	}

	var dates []time.Time
	for _, token := range dateTokenRe.FindAllString(entry, -1) {
		if d, ok := ParseDate(token); ok {
			dates = append(dates, d.Time)
		}
	}

	hasVon, hasBis := vonRe.MatchString(entry), bisRe.MatchString(entry)
	switch {
	case hasVon && hasBis && len(dates) >= 2:
		return semesterLabels(dates[0], dates[1])
	case abRe.MatchString(entry) && len(dates) > 0:
		return semesterLabels(dates[0], today)
	case hasBis && !hasVon && len(dates) > 0:
		return []string{model.SemesterOf(dates[0]).String()}
	}
	return []string{model.UnknownSemester}
}

func semesterLabels(from, to time.Time) []string {
	sems := model.SemesterRange(model.SemesterOf(from), model.SemesterOf(to))
	out := make([]string, len(sems))
	for i, s := range sems {
		out[i] = s.String()
	}
	return out
}

// RoleKey 去掉日期信息后的角色名
// "Chargen: Senior (SS 2021)" -> "Senior"；"Kassier (OV) (von 1.3.2020 bis 30.9.2020)" -> "Kassier (OV)"
func RoleKey(entry string) string {
	text := NormalizeText(RepairMojibake(entry))
	if text == "" {
		return ""
	}
	if _, after, found := strings.Cut(text, ":"); found {
		text = strings.TrimSpace(after)
	}
	text = parenGroupRe.ReplaceAllStringFunc(text, func(group string) string {
		inner := strings.TrimSpace(group[1 : len(group)-1])
		if yearRe.MatchString(inner) || isDateNote(inner) {
			return ""
		}
		return " (" + inner + ")"
	})
	return strings.Trim(NormalizeText(text), " -|")
}

func isDateNote(text string) bool {
	for _, word := range strings.Fields(NormalizeForMatch(text)) {
		if dateWords[word] {
			return true
		}
	}
	return false
}

// RoleName 角色名，无法提取时退回整条原文
func RoleName(entry string) string {
	if key := RoleKey(entry); key != "" {
		return key
	}
	return NormalizeText(entry)
}
