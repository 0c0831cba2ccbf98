package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"albstats/internal/model"
)

// 数字日期格式，按顺序尝试（日在前）
var dateLayouts = []string{
	"2.1.2006",
	"2.1.06",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2/1/2006",
	"2006/1/2",
}

// 德文月份（取前三个字母，变音已转写）
var germanMonths = map[string]time.Month{
	"jan": time.January,
	"jae": time.January,
	"feb": time.February,
	"mae": time.March,
	"mar": time.March,
	"mrz": time.March,
	"apr": time.April,
	"mai": time.May,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"okt": time.October,
	"oct": time.October,
	"nov": time.November,
	"dez": time.December,
	"dec": time.December,
}

var monthNameDateRe = regexp.MustCompile(`^(\d{1,2})\s+([a-z]+)\s+(\d{4})$`)

// ParseDate 解析日期，支持 Excel 序列号、德式数字日期与德文月份名；无法识别返回 false
func ParseDate(s string) (model.Date, bool) {
	s = strings.TrimSpace(RepairMojibake(s))
	if s == "" {
		return model.Date{}, false
	}

	// Excel 序列号（原始单元格值）
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if !(serial >= 1 && serial <= 2958465) {
			return model.Date{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return model.Date{}, false
		}
		return model.DateOf(t), true
	}

	compact := strings.Join(strings.Fields(s), "")
	for _, layout := range dateLayouts {
		candidate := compact
		if strings.Contains(layout, " ") {
			candidate = s
		}
		if t, err := time.Parse(layout, candidate); err == nil {
			return model.DateOf(t), true
		}
	}

	return parseMonthNameDate(s)
}

// parseMonthNameDate "1. Jänner 1990" / "3. Mrz 2001" / "15 Okt 2019"
func parseMonthNameDate(s string) (model.Date, bool) {
	text := umlautReplace.Replace(folder.String(s))
	text = strings.ReplaceAll(text, ".", " ")
	text = NormalizeText(text)
	m := monthNameDateRe.FindStringSubmatch(text)
	if m == nil || len(m[2]) < 3 {
		return model.Date{}, false
	}
	month, ok := germanMonths[m[2][:3]]
	if !ok {
		return model.Date{}, false
	}
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// 拒绝 31. Feb 之类被 time.Date 顺延的日期
	if t.Day() != day || t.Month() != month {
		return model.Date{}, false
	}
	return model.Date{Time: t, OK: true}, true
}
