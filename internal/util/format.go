package util

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var dePrinter = message.NewPrinter(language.German)

// FormatDecimal 德语数字格式（千分位 "."，小数点 ","）
func FormatDecimal(value float64, digits int) string {
	return dePrinter.Sprintf("%."+strconv.Itoa(digits)+"f", value)
}

// FormatOptional nil 显示为 n/a
func FormatOptional(value *float64, digits int) string {
	if value == nil {
		return "n/a"
	}
	return FormatDecimal(*value, digits)
}

// FormatPercent 百分比，value 为 0..100
func FormatPercent(value float64) string {
	return FormatDecimal(value, 1) + " %"
}
