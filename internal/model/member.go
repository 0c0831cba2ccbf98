package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Date 可缺失的日期
type Date struct {
	Time time.Time
	OK   bool
}

// NewDate 构造已知日期（只保留年月日）
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), OK: true}
}

// DateOf 从 time.Time 截取日期部分
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// String 返回 2006-01-02，未知时为空串
func (d Date) String() string {
	if !d.OK {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// MarshalJSON 未知日期输出 null
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.OK {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// Status 成员状态代码
type Status string

const (
	StatusUP Status = "UP"
	StatusBP Status = "BP"
	StatusEM Status = "EM"
	StatusBU Status = "BU"
	StatusFU Status = "FU"
)

// NormalizeStatus 统一大小写与空白，其他代码原样保留
func NormalizeStatus(s string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(s)))
}

// IsPhilister UP、BP、EM
func (s Status) IsPhilister() bool {
	return s == StatusUP || s == StatusBP || s == StatusEM
}

// IsAktivitas BU、FU
func (s Status) IsAktivitas() bool {
	return s == StatusBU || s == StatusFU
}

// PersonGroup 人员分组
type PersonGroup string

const (
	GroupAktive    PersonGroup = "Aktive"
	GroupPhilister PersonGroup = "Philister"
)

// Group BU/FU 属于 Aktive，其余（含未知代码）归入 Philister
func (s Status) Group() PersonGroup {
	if s.IsAktivitas() {
		return GroupAktive
	}
	return GroupPhilister
}

// Member 成员记录
type Member struct {
	Name           string   `json:"name"`
	Status         Status   `json:"status"`
	BirthDate      Date     `json:"birthDate"`
	ReceptionDate  Date     `json:"receptionDate"`
	Philistrierung Date     `json:"philistrierung"`
	Entries        []string `json:"entries,omitempty"`
}

// AgeAt 以 ref 为基准的年龄（年，365.2425 天/年），生日未知返回 false
func (m *Member) AgeAt(ref time.Time) (float64, bool) {
	if !m.BirthDate.OK {
		return 0, false
	}
	days := ref.Sub(m.BirthDate.Time).Hours() / 24
	return days / 365.2425, true
}

// RoleAssignment 某学期担任的 Charge
type RoleAssignment struct {
	Member   string `json:"member"`
	Semester string `json:"semester"` // 规范标签，无法识别时保留原文或 Ohne Semester
	Role     string `json:"role"`
	Entry    string `json:"entry"`
}

// ParsedSemester 解析学期
func (a RoleAssignment) ParsedSemester() (Semester, bool) {
	return ParseSemester(a.Semester)
}
