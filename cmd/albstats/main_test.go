package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"albstats/internal/config"
	"albstats/internal/importer"
)

func writeExport(t *testing.T, path string, header []interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Exportdaten"))
	rows := [][]interface{}{
		header,
		{"Mustermann", "UP", "01.01.1995", "01.10.2014", "01.03.2020", "Senior (WS 2019/20) | Kassier (SS 2021)"},
		{"Musterfrau", "BU", "01.01.2000", "", "", "Barwart (SS 2020)"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, 5+i)
		r := row
		require.NoError(t, f.SetSheetRow("Exportdaten", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

var fullHeader = []interface{}{"Couleurname", "Mitgliedstatus", "Geburtsdatum", "Reception", "Philistrierung", "Chargen"}

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = t.TempDir()
	return cfg
}

func TestResolveSource_Explicit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "export.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	got, err := resolveSource(path, "", dir, "Datenexport*.xlsx")
	require.NoError(t, err)
	assert.Equal(t, path, got)

	_, err = resolveSource(filepath.Join(dir, "fehlt.xlsx"), "", dir, "Datenexport*.xlsx")
	assert.Error(t, err)
}

func TestResolveSource_LastThenNewest(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	older := filepath.Join(dir, "Datenexport_alt.xlsx")
	newer := filepath.Join(dir, "Datenexport_neu.xlsx")
	lock := filepath.Join(dir, "~$Datenexport_neu.xlsx")
	for _, p := range []string{older, newer, lock} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))
	require.NoError(t, os.Chtimes(lock, base.Add(2*time.Minute), base.Add(2*time.Minute)))

	got, err := resolveSource("", older, dir, "Datenexport*.xlsx")
	require.NoError(t, err)
	assert.Equal(t, older, got, "zuletzt geladene Datei hat Vorrang")

	got, err = resolveSource("", filepath.Join(dir, "weg.xlsx"), dir, "Datenexport*.xlsx")
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	got, err = resolveSource("", "", t.TempDir(), "Datenexport*.xlsx")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunCheck_PrintsSummary(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, filepath.Join(dir, "Datenexport_2024.xlsx"), fullHeader)

	var out bytes.Buffer
	require.NoError(t, runCheck(&out, testConfig(t), "", dir))

	s := out.String()
	assert.Contains(t, s, "Datenexport_2024.xlsx")
	assert.Contains(t, s, "Blatt: Exportdaten")
	assert.Contains(t, s, "Zeilen mit Couleurname: 2")
	assert.Contains(t, s, "UP")
	assert.Contains(t, s, "Semester mit Chargen: 3")
	assert.Contains(t, s, "Chargen-Einträge: 3")
	assert.Contains(t, s, "Durchschnittsalter Alle: ")
	assert.Contains(t, s, "Unklare Chargen: ")
}

func TestRunCheck_Failures(t *testing.T) {
	dir := t.TempDir()

	err := runCheck(&bytes.Buffer{}, testConfig(t), "", dir)
	assert.ErrorIs(t, err, errNoSource)

	path := filepath.Join(dir, "Datenexport_kaputt.xlsx")
	writeExport(t, path, []interface{}{"Couleurname", "Mitgliedstatus"})
	err = runCheck(&bytes.Buffer{}, testConfig(t), path, dir)
	var missing *importer.MissingColumnsError
	require.True(t, errors.As(err, &missing), "got %v", err)
	assert.Contains(t, missing.Columns, "Chargen")
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()
	cfg.Server.Port = 9000
	require.NoError(t, config.SaveConfig(cfgPath, cfg))

	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&port, "port", 0, "")
	configPath = cfgPath
	t.Cleanup(func() {
		configPath = ""
		port = 0
	})

	got, info, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.Equal(t, 9000, got.Server.Port)

	require.NoError(t, cmd.Flags().Set("port", "9100"))
	got, _, err = loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 9100, got.Server.Port)
}

func TestBrowserHost(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "localhost", browserHost("0.0.0.0"))
	assert.Equal(t, "localhost", browserHost(""))
	assert.Equal(t, "127.0.0.1", browserHost("127.0.0.1"))
}
