package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"albstats/internal/config"
	"albstats/internal/model"
	"albstats/internal/stats"
	"albstats/internal/util"
)

// errNoSource 没有可检查的导出文件
var errNoSource = errors.New("Keine Exportdatei gefunden. Bitte mit --file angeben.")

// runCheck 只加载并分类，输出摘要；不启动界面，不写导入历史
func runCheck(out io.Writer, cfg *config.AppConfig, explicit, dir string) error {
	a, err := newApp(cfg, os.Stderr, false)
	if err != nil {
		return err
	}
	defer a.Close()

	path, err := resolveSource(explicit, "", dir, cfg.Excel.FilePattern)
	if err != nil {
		return err
	}
	if path == "" {
		return errNoSource
	}
	if _, err := a.session.LoadFile(path); err != nil {
		return err
	}

	bundle, err := a.session.Compute(stats.Filters{})
	if err != nil {
		return err
	}
	cd, err := a.session.Classified()
	if err != nil {
		return err
	}
	unclear := 0
	for _, ca := range cd.Assignments {
		if ca.Category == model.CategoryUnklare {
			unclear++
		}
	}

	statuses := make([]string, 0, len(bundle.StatusValues))
	for _, s := range bundle.StatusValues {
		statuses = append(statuses, string(s))
	}

	fmt.Fprintf(out, "Excel: %s\n", path)
	fmt.Fprintf(out, "Blatt: %s\n", cd.Dataset.Sheet)
	fmt.Fprintf(out, "Zeilen mit Couleurname: %d\n", bundle.Members)
	fmt.Fprintf(out, "Status: %s\n", strings.Join(statuses, ", "))
	fmt.Fprintf(out, "Semester mit Chargen: %d\n", len(bundle.SemesterValues))
	fmt.Fprintf(out, "Chargen-Einträge: %d\n", bundle.Assignments)
	fmt.Fprintf(out, "Durchschnittsalter Alle: %s\n", util.FormatOptional(bundle.AgeGroups[0].Mean, 1))
	fmt.Fprintf(out, "Unklare Chargen: %d\n", unclear)
	if n := len(cd.Dataset.Warnings); n > 0 {
		fmt.Fprintf(out, "Warnungen: %d\n", n)
		for _, w := range cd.Dataset.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
	return nil
}
