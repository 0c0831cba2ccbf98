package model

import (
	"time"

	"github.com/google/uuid"
)

// Dataset 一次导入的完整数据，构造后只读，重新上传时整体替换
type Dataset struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Sheet       string           `json:"sheet,omitempty"`
	LoadedAt    time.Time        `json:"loadedAt"`
	Members     []Member         `json:"members"`
	Assignments []RoleAssignment `json:"assignments"`
	Warnings    []string         `json:"warnings,omitempty"`

	index map[string]int
}

// NewDataset 构造数据集并建立成员索引
func NewDataset(source string, members []Member, assignments []RoleAssignment, warnings []string) *Dataset {
	ds := &Dataset{
		ID:          uuid.New().String(),
		Source:      source,
		LoadedAt:    time.Now(),
		Members:     members,
		Assignments: assignments,
		Warnings:    warnings,
		index:       make(map[string]int, len(members)),
	}
	for i, m := range members {
		if _, exists := ds.index[m.Name]; !exists {
			ds.index[m.Name] = i
		}
	}
	return ds
}

// Member 按名字查找成员
func (d *Dataset) Member(name string) (*Member, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.Members[i], true
}

// ClassifiedAssignment 带分类结果的 Charge
type ClassifiedAssignment struct {
	RoleAssignment
	Category   Category `json:"category"`
	Auto       Category `json:"auto"` // 不考虑覆盖时的自动分类
	Overridden bool     `json:"overridden"`
}

// ClassifiedDataset 分类后的数据集
type ClassifiedDataset struct {
	Dataset     *Dataset
	Assignments []ClassifiedAssignment
	Today       time.Time
}
