package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"albstats/internal/stats"
)

// utf8BOM 让 Excel 正确识别 UTF-8
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV 写出当前筛选下的表格（UTF-8 BOM + CSV）
func WriteCSV(w io.Writer, b *stats.Bundle) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	records := tableRecords(b)
	if len(records) == 1 {
		// 只有表头时 dataframe 无法推断列
		cw := csv.NewWriter(w)
		if err := cw.Write(records[0]); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return fmt.Errorf("failed to build table: %w", df.Err)
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
