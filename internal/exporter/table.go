package exporter

import (
	"strconv"

	"albstats/internal/stats"
)

// 表头（与界面表格一致）
var tableHeaders = []string{
	"Couleurname", "Status", "Chargen gesamt", "Aktiven", "Philister", "Unklare", "Chargen-Details",
}

const semesterHeader = "Chargen im Semester"

// tableRecords 表格转为字符串记录，首行为表头；选了学期时追加学期列
func tableRecords(b *stats.Bundle) [][]string {
	headers := append([]string{}, tableHeaders...)
	withSemester := b != nil && b.Semester != ""
	if withSemester {
		headers = append(headers[:6:6], semesterHeader, tableHeaders[6])
	}

	records := [][]string{headers}
	if b == nil {
		return records
	}
	for _, p := range b.Table {
		row := []string{
			p.Name,
			string(p.Status),
			strconv.Itoa(p.Total),
			strconv.Itoa(p.Aktiven),
			strconv.Itoa(p.Philister),
			strconv.Itoa(p.Unklare),
		}
		if withSemester {
			row = append(row, strconv.Itoa(p.SemesterCount))
		}
		row = append(row, p.Details)
		records = append(records, row)
	}
	return records
}
