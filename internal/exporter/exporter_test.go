package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"albstats/internal/model"
	"albstats/internal/stats"
)

func sampleBundle(semester string) *stats.Bundle {
	ds := model.NewDataset("Datenexport.xlsx", []model.Member{
		{Name: "Anton", Status: model.StatusUP, BirthDate: model.NewDate(2004, time.January, 1)},
		{Name: "Berta, \"BB\"", Status: model.StatusBU},
	}, nil, nil)
	cd := &model.ClassifiedDataset{
		Dataset: ds,
		Today:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Assignments: []model.ClassifiedAssignment{
			{
				RoleAssignment: model.RoleAssignment{Member: "Anton", Semester: "SS 2021", Role: "Senior", Entry: "Senior (SS 2021)"},
				Category:       model.CategoryAktiven,
				Auto:           model.CategoryAktiven,
			},
			{
				RoleAssignment: model.RoleAssignment{Member: "Anton", Semester: "WS 2021/22", Role: "Kassier", Entry: "Kassier (WS 2021/22)"},
				Category:       model.CategoryAktiven,
				Auto:           model.CategoryAktiven,
			},
		},
	}
	return stats.Aggregate(cd, stats.Filters{Semester: semester}, stats.DefaultOptions())
}

func TestWriteCSV_BOMAndRows(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBundle("")))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}))

	records, err := csv.NewReader(bytes.NewReader(raw[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, tableHeaders, records[0])
	assert.Equal(t, []string{"Anton", "UP", "2", "2", "0", "0", "SS 2021: Senior (SS 2021)\nWS 2021/22: Kassier (WS 2021/22)"}, records[1])
	assert.Equal(t, "Berta, \"BB\"", records[2][0])
	assert.Equal(t, stats.NoDetails, records[2][6])
}

func TestWriteCSV_SemesterColumn(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBundle("SS 2021")))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, semesterHeader, records[0][6])
	assert.Equal(t, "Chargen-Details", records[0][7])
	assert.Equal(t, "1", records[1][6])
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{tableHeaders}, records)
}

func TestWriteXLSX_Sheets(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleBundle("")))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetChargen, SheetKennzahlen}, f.GetSheetList())

	name, err := f.GetCellValue(SheetChargen, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Anton", name)
	total, err := f.GetCellValue(SheetChargen, "C2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	rows, err := f.GetRows(SheetKennzahlen)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Kennzahl", "Wert"}, rows[0])
	assert.Equal(t, []string{"Quelle", "Datenexport.xlsx"}, rows[1])

	found := false
	for _, r := range rows {
		if len(r) == 2 && r[0] == "Durchschnittsalter Alle" {
			found = true
			assert.Equal(t, "20", r[1])
		}
	}
	assert.True(t, found)
}
