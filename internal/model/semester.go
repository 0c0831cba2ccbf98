package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// UnknownSemester 无法识别学期时的占位标签
const UnknownSemester = "Ohne Semester"

// Term 学期类型
type Term int

const (
	TermSummer Term = iota // SS
	TermWinter             // WS
)

// Semester 学期（SS 2021 / WS 2019/20）
type Semester struct {
	Term Term
	Year int // 学期开始年份
}

var semesterPattern = regexp.MustCompile(`(?i)^\s*(SS|WS)\s*(\d{4})(?:\s*/\s*(\d{2}|\d{4}))?\s*$`)

// ParseSemester 解析学期标记，支持 "SS2021"、"SS 2021"、"WS 2019/20"、"ws2019/2020"
func ParseSemester(s string) (Semester, bool) {
	m := semesterPattern.FindStringSubmatch(s)
	if m == nil {
		return Semester{}, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return Semester{}, false
	}
	term := TermSummer
	if strings.EqualFold(m[1], "WS") {
		term = TermWinter
	}
	return Semester{Term: term, Year: year}, true
}

// SemesterOf 日期所在学期：1-6 月为 SS，7-12 月为 WS
func SemesterOf(t time.Time) Semester {
	if t.Month() <= time.June {
		return Semester{Term: TermSummer, Year: t.Year()}
	}
	return Semester{Term: TermWinter, Year: t.Year()}
}

// String 规范标签
func (s Semester) String() string {
	if s.Term == TermSummer {
		return fmt.Sprintf("SS %d", s.Year)
	}
	return fmt.Sprintf("WS %d/%02d", s.Year, (s.Year+1)%100)
}

// Start 学期开始日期：SS 为 3 月 1 日，WS 为 10 月 1 日
func (s Semester) Start() time.Time {
	if s.Term == TermSummer {
		return time.Date(s.Year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(s.Year, time.October, 1, 0, 0, 0, 0, time.UTC)
}

// Next 下一学期
func (s Semester) Next() Semester {
	if s.Term == TermSummer {
		return Semester{Term: TermWinter, Year: s.Year}
	}
	return Semester{Term: TermSummer, Year: s.Year + 1}
}

// Before 是否早于 other
func (s Semester) Before(other Semester) bool {
	if s.Year != other.Year {
		return s.Year < other.Year
	}
	return s.Term < other.Term
}

// CanonicalSemester 规范化学期标签，无法识别时返回去空白后的原文
func CanonicalSemester(label string) string {
	if sem, ok := ParseSemester(label); ok {
		return sem.String()
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return UnknownSemester
	}
	return label
}

// CompareSemesterLabels 学期标签排序：可识别的按时间，其余排在最后
func CompareSemesterLabels(a, b string) int {
	sa, okA := ParseSemester(a)
	sb, okB := ParseSemester(b)
	switch {
	case okA && okB:
		if sa == sb {
			return 0
		}
		if sa.Before(sb) {
			return -1
		}
		return 1
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

// SemesterRange 闭区间内的全部学期（自动调整顺序）
func SemesterRange(from, to Semester) []Semester {
	if to.Before(from) {
		from, to = to, from
	}
	var out []Semester
	for cur := from; !to.Before(cur); cur = cur.Next() {
		out = append(out, cur)
	}
	return out
}
