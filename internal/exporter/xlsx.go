package exporter

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"albstats/internal/stats"
)

// 工作表名
const (
	SheetChargen    = "Chargen"
	SheetKennzahlen = "Kennzahlen"
)

// WriteXLSX 写出 Excel：Chargen（当前表格）与 Kennzahlen（年龄、平均值、分位数）
func WriteXLSX(w io.Writer, b *stats.Bundle) error {
	f, err := BuildWorkbook(b)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook 构造工作簿，调用方负责 Close
func BuildWorkbook(b *stats.Bundle) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetChargen); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create wrap style: %w", err)
	}

	if err := writeChargenSheet(f, b, headerStyle, wrapStyle); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetKennzahlen); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeKennzahlenSheet(f, b, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeChargenSheet(f *excelize.File, b *stats.Bundle, headerStyle, wrapStyle int) error {
	records := tableRecords(b)
	headers := records[0]
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetChargen, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(SheetChargen, 1, 1, headerStyle); err != nil {
		return err
	}

	detailCol := len(headers)
	for r, rec := range records[1:] {
		row := r + 2
		for c, v := range rec {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			var value any = v
			// 计数列写成数字
			if c >= 2 && c < detailCol-1 {
				if n, err := strconv.Atoi(v); err == nil {
					value = n
				}
			}
			if err := f.SetCellValue(SheetChargen, cell, value); err != nil {
				return err
			}
		}
		detailCell, _ := excelize.CoordinatesToCellName(detailCol, row)
		if err := f.SetCellStyle(SheetChargen, detailCell, detailCell, wrapStyle); err != nil {
			return err
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(detailCol)
	prevCol, _ := excelize.ColumnNumberToName(detailCol - 1)
	_ = f.SetColWidth(SheetChargen, "A", "A", 28)
	_ = f.SetColWidth(SheetChargen, "B", prevCol, 14)
	_ = f.SetColWidth(SheetChargen, lastCol, lastCol, 60)
	return f.SetPanes(SheetChargen, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeKennzahlenSheet(f *excelize.File, b *stats.Bundle, headerStyle int) error {
	rows := [][]any{{"Kennzahl", "Wert"}}
	if b != nil {
		rows = append(rows,
			[]any{"Quelle", b.Source},
			[]any{"Stichtag", b.Today.Format("2006-01-02")},
			[]any{"Mitglieder", b.Members},
			[]any{"Chargen-Einträge", b.Assignments},
		)
		for _, g := range b.AgeGroups {
			rows = append(rows,
				[]any{"Durchschnittsalter " + g.Label, optional(g.Mean)},
				[]any{"Median Alter " + g.Label, optional(g.Median)},
				[]any{"Mit Geburtsdatum " + g.Label, g.Count},
			)
		}
		rows = append(rows,
			[]any{"Personen mit Chargen", b.Averages.PersonsWithChargen},
			[]any{"Ø Chargen pro Person", optional(b.Averages.Total)},
			[]any{"Ø Aktiven-Chargen pro Person", optional(b.Averages.Aktiven)},
			[]any{"Ø Philister-Chargen pro Person", optional(b.Averages.Philister)},
			[]any{fmt.Sprintf("%g. Perzentil Chargen/Jahr", b.Percentiles.Percentile), optional(b.Percentiles.IntensityCutoff)},
			[]any{fmt.Sprintf("%g. Perzentil Chargen gesamt", b.Percentiles.Percentile), optional(b.Percentiles.TotalCutoff)},
		)
		for _, s := range b.StatusShares.Shares {
			rows = append(rows, []any{"Anteil " + string(s.Status) + " (%)", round2(s.Percent)})
		}
	}

	for i, row := range rows {
		for j, val := range row {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			if err := f.SetCellValue(SheetKennzahlen, cell, val); err != nil {
				return err
			}
		}
	}
	if err := f.SetRowStyle(SheetKennzahlen, 1, 1, headerStyle); err != nil {
		return err
	}
	_ = f.SetColWidth(SheetKennzahlen, "A", "A", 40)
	_ = f.SetColWidth(SheetKennzahlen, "B", "B", 20)
	return nil
}

// optional 空值写成 n/a
func optional(v *float64) any {
	if v == nil {
		return "n/a"
	}
	return round2(*v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
