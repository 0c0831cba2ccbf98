package importer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"albstats/internal/model"
)

// writeWorkbook 生成测试用工作簿，rows 从第 startRow 行开始写
func writeWorkbook(t *testing.T, sheet string, startRow int, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	require.NoError(t, f.SetCellValue(sheet, "A1", "Mitgliederexport"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}
	path := filepath.Join(t.TempDir(), "Datenexport.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var header = []interface{}{"Couleurname", "Mitgliedstatus", "Geburtsdatum", "Reception", "Philistrierung", "Chargen"}

func testLoader() *Loader {
	return NewLoader(Options{Today: time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC)}, nil)
}

func TestLoad_ExportLayout(t *testing.T) {
	path := writeWorkbook(t, "Exportdaten", 5, [][]interface{}{
		header,
		{"Mustermann", "UP", "01.01.1995", "01.10.2014", "01.03.2020", "Senior (WS2019) | Kassier (SS 2021)\nSenior (WS 2019/20)"},
		{"Musterfrau", "bu", float64(43831), "", "", "Barwart (bis 15.12.2019)"},
		{"", "UP", "01.01.1990", "", "", "Senior (SS 2000)"},
		{"Beispiel", "FU", "kein Datum", "", "", ""},
	})

	ds, err := testLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Datenexport.xlsx", ds.Source)
	assert.NotEmpty(t, ds.ID)
	require.Len(t, ds.Members, 3)

	m, ok := ds.Member("Mustermann")
	require.True(t, ok)
	assert.Equal(t, model.StatusUP, m.Status)
	assert.Equal(t, "1995-01-01", m.BirthDate.String())
	assert.Equal(t, "2014-10-01", m.ReceptionDate.String())
	assert.Equal(t, "2020-03-01", m.Philistrierung.String())
	assert.Len(t, m.Entries, 3)

	frau, ok := ds.Member("Musterfrau")
	require.True(t, ok)
	assert.Equal(t, model.StatusBU, frau.Status)
	assert.Equal(t, "2020-01-01", frau.BirthDate.String())
	assert.False(t, frau.Philistrierung.OK)

	beispiel, ok := ds.Member("Beispiel")
	require.True(t, ok)
	assert.False(t, beispiel.BirthDate.OK)
	require.Len(t, ds.Warnings, 1)
	assert.Contains(t, ds.Warnings[0], "Geburtsdatum")

	assert.Equal(t, []model.RoleAssignment{
		{Member: "Mustermann", Semester: "WS 2019/20", Role: "Senior", Entry: "Senior (WS2019)"},
		{Member: "Mustermann", Semester: "SS 2021", Role: "Kassier", Entry: "Kassier (SS 2021)"},
		{Member: "Musterfrau", Semester: "WS 2019/20", Role: "Barwart", Entry: "Barwart (bis 15.12.2019)"},
	}, ds.Assignments)
}

func TestLoad_FallbackSheetAndHeaderScan(t *testing.T) {
	path := writeWorkbook(t, "Tabelle1", 2, [][]interface{}{
		header,
		{"Mustermann", "BP", "", "", "", "Consenior (SS 2019)"},
	})

	ds, err := testLoader().Load(path)
	require.NoError(t, err)
	require.Len(t, ds.Members, 1)
	require.Len(t, ds.Assignments, 1)
	assert.Equal(t, "SS 2019", ds.Assignments[0].Semester)
}

func TestLoad_MissingColumns(t *testing.T) {
	path := writeWorkbook(t, "Exportdaten", 5, [][]interface{}{
		{"Couleurname", "Mitgliedstatus", "Reception"},
		{"Mustermann", "UP", ""},
	})

	ds, err := testLoader().Load(path)
	require.Error(t, err)
	assert.Nil(t, ds)

	var mce *MissingColumnsError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, []string{"Geburtsdatum", "Chargen"}, mce.Columns)
	assert.Contains(t, err.Error(), "Geburtsdatum")
}

func TestLoad_NotAWorkbook(t *testing.T) {
	_, err := testLoader().Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}

func TestLoad_RecognizesSheetByHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Notizen"))
	require.NoError(t, f.SetCellValue("Notizen", "A1", "Couleurname"))
	_, err := f.NewSheet("Mitglieder")
	require.NoError(t, err)
	rows := [][]interface{}{
		header,
		{"Mustermann", "UP", "01.01.1990", "", "", "Senior (SS 2010)"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, 3+i)
		r := row
		require.NoError(t, f.SetSheetRow("Mitglieder", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "Datenexport.xlsx")
	require.NoError(t, f.SaveAs(path))

	ds, err := testLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Mitglieder", ds.Sheet)
	require.Len(t, ds.Members, 1)
	assert.Equal(t, "Mustermann", ds.Members[0].Name)
}
