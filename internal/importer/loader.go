package importer

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"albstats/internal/model"
	"albstats/internal/parser"
)

// 列名
const (
	ColName           = "Couleurname"
	ColStatus         = "Mitgliedstatus"
	ColBirthDate      = "Geburtsdatum"
	ColChargen        = "Chargen"
	ColReception      = "Reception"
	ColPhilistrierung = "Philistrierung"
)

// RequiredColumns 必需列
var RequiredColumns = []string{ColName, ColStatus, ColBirthDate, ColChargen}

// 表头自动识别时扫描的最大行数
const headerScanRows = 30

// MissingColumnsError 缺少必需列
type MissingColumnsError struct {
	Sheet   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Pflichtspalten fehlen in Blatt %q: %s", e.Sheet, strings.Join(e.Columns, ", "))
}

// Options 导入选项
type Options struct {
	SheetName string    // 默认 Exportdaten，不存在时按表头识别
	HeaderRow int       // 表头所在行（从 1 开始），默认 5
	Today     time.Time // "ab <日期>" 区间的截止日，零值取当前日期
}

// Loader Excel 导出文件加载器
type Loader struct {
	opts       Options
	logger     *slog.Logger
	recognizer *parser.SheetRecognizer
}

// NewLoader 创建加载器
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if opts.SheetName == "" {
		opts.SheetName = "Exportdaten"
	}
	if opts.HeaderRow <= 0 {
		opts.HeaderRow = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		opts:       opts,
		logger:     logger,
		recognizer: parser.NewSheetRecognizer(RequiredColumns),
	}
}

// Load 从文件路径加载
func (l *Loader) Load(path string) (*model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return l.LoadReader(f, filepath.Base(path))
}

// LoadReader 从任意 reader 加载（上传文件）
func (l *Loader) LoadReader(r io.Reader, source string) (*model.Dataset, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	sheet, err := l.resolveSheet(wb)
	if err != nil {
		return nil, err
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	headerIdx, cols, err := l.locateHeader(sheet, rows)
	if err != nil {
		return nil, err
	}

	today := l.opts.Today
	if today.IsZero() {
		today = time.Now()
	}

	b := newDatasetBuilder(cols, today)
	for i := headerIdx + 1; i < len(rows); i++ {
		b.addRow(i+1, rows[i])
	}

	ds := model.NewDataset(source, b.members, b.assignments, b.warnings)
	ds.Sheet = sheet
	l.logger.Info("dataset loaded",
		slog.String("source", source),
		slog.String("sheet", sheet),
		slog.Int("header_row", headerIdx+1),
		slog.Int("members", len(ds.Members)),
		slog.Int("assignments", len(ds.Assignments)),
		slog.Int("warnings", len(ds.Warnings)),
	)
	return ds, nil
}

// resolveSheet 优先按名称匹配；找不到时取表头识别置信度最高的工作表
func (l *Loader) resolveSheet(wb *excelize.File) (string, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	for _, name := range sheets {
		if strings.EqualFold(strings.TrimSpace(name), l.opts.SheetName) {
			return name, nil
		}
	}

	using := sheets[0]
	if len(sheets) > 1 {
		matches := make([]parser.HeaderMatch, 0, len(sheets))
		for _, name := range sheets {
			rows, err := wb.GetRows(name, excelize.Options{RawCellValue: true})
			if err != nil {
				continue
			}
			matches = append(matches, l.recognizer.Recognize(name, rows, headerScanRows))
		}
		if best, ok := parser.Best(matches); ok {
			using = best.Sheet
		}
	}
	l.logger.Warn("sheet not found, using recognized sheet",
		slog.String("wanted", l.opts.SheetName),
		slog.String("using", using),
	)
	return using, nil
}

// locateHeader 先看配置的表头行，不满足时在前 30 行内识别
func (l *Loader) locateHeader(sheet string, rows [][]string) (int, columnIndex, error) {
	configured := l.opts.HeaderRow - 1
	if configured < len(rows) {
		if cols := indexColumns(rows[configured]); len(cols.missing()) == 0 {
			return configured, cols, nil
		}
	}

	m := l.recognizer.Recognize(sheet, rows, headerScanRows)
	if m.Row < 0 || len(m.Missing) > 0 {
		return 0, nil, &MissingColumnsError{Sheet: sheet, Columns: m.Missing}
	}
	l.logger.Info("header row recognized", slog.Int("row", m.Row+1))
	return m.Row, indexColumns(rows[m.Row]), nil
}

// columnIndex 列名 -> 列下标
type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	wanted := make(map[string]string, 6)
	for _, c := range []string{ColName, ColStatus, ColBirthDate, ColChargen, ColReception, ColPhilistrierung} {
		wanted[parser.NormalizeForMatch(c)] = c
	}
	cols := make(columnIndex)
	for i, cell := range header {
		if name, ok := wanted[parser.NormalizeForMatch(cell)]; ok {
			if _, dup := cols[name]; !dup {
				cols[name] = i
			}
		}
	}
	return cols
}

func (c columnIndex) missing() []string {
	var out []string
	for _, col := range RequiredColumns {
		if _, ok := c[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

// value 取单元格，行过短或列不存在时为空
func (c columnIndex) value(row []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

type assignmentKey struct {
	member, role, semester string
}

type datasetBuilder struct {
	cols        columnIndex
	today       time.Time
	members     []model.Member
	assignments []model.RoleAssignment
	warnings    []string
	seenMembers map[string]bool
	seenRoles   map[assignmentKey]bool
}

func newDatasetBuilder(cols columnIndex, today time.Time) *datasetBuilder {
	return &datasetBuilder{
		cols:        cols,
		today:       today,
		seenMembers: make(map[string]bool),
		seenRoles:   make(map[assignmentKey]bool),
	}
}

func (b *datasetBuilder) addRow(rowNum int, row []string) {
	name := parser.NormalizeText(parser.RepairMojibake(b.cols.value(row, ColName)))
	if name == "" {
		return
	}
	if b.seenMembers[name] {
		b.warnf("Zeile %d: doppelter Couleurname %q ignoriert", rowNum, name)
		return
	}
	b.seenMembers[name] = true

	m := model.Member{
		Name:   name,
		Status: model.NormalizeStatus(b.cols.value(row, ColStatus)),
	}
	m.BirthDate = b.date(rowNum, name, ColBirthDate, row)
	m.ReceptionDate = b.date(rowNum, name, ColReception, row)
	m.Philistrierung = b.date(rowNum, name, ColPhilistrierung, row)
	m.Entries = parser.SplitEntries(parser.RepairMojibake(b.cols.value(row, ColChargen)))
	b.members = append(b.members, m)

	for _, entry := range m.Entries {
		role := parser.RoleName(entry)
		for _, sem := range parser.ExtractSemesters(entry, b.today) {
			key := assignmentKey{member: name, role: role, semester: sem}
			if b.seenRoles[key] {
				continue
			}
			b.seenRoles[key] = true
			b.assignments = append(b.assignments, model.RoleAssignment{
				Member:   name,
				Semester: sem,
				Role:     role,
				Entry:    entry,
			})
		}
	}
}

// date 日期格式错误记为未知并产生警告
func (b *datasetBuilder) date(rowNum int, name, col string, row []string) model.Date {
	raw := strings.TrimSpace(b.cols.value(row, col))
	if raw == "" {
		return model.Date{}
	}
	d, ok := parser.ParseDate(raw)
	if !ok {
		b.warnf("Zeile %d (%s): ungueltiges Datum in %s: %q", rowNum, name, col, raw)
	}
	return d
}

func (b *datasetBuilder) warnf(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Sprintf(format, args...))
}
