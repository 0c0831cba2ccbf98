package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	nonAlnumRe    = regexp.MustCompile(`[^a-z0-9]+`)
	umlautReplace = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")
	folder        = cases.Fold()
)

// NormalizeText 去掉首尾空白并合并连续空白
func NormalizeText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// RepairMojibake 修复 UTF-8 被按 Latin-1/CP1252 解读后的乱码（如 "FÃ¼hrer"）
func RepairMojibake(s string) string {
	if !strings.ContainsAny(s, "Ãâ") {
		return s
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		raw, err := cm.NewEncoder().String(s)
		if err != nil {
			continue
		}
		if utf8.ValidString(raw) {
			return raw
		}
	}
	return s
}

// NormalizeForMatch 关键词匹配用的规范形式：小写、变音转写、非字母数字替换为空格
func NormalizeForMatch(s string) string {
	s = RepairMojibake(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = folder.String(norm.NFC.String(s))
	s = umlautReplace.Replace(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// MatchesKeyword 规范化后的 text 是否包含任一关键词（关键词同样规范化）
func MatchesKeyword(text string, keywords []string) bool {
	normalized := NormalizeForMatch(text)
	if normalized == "" {
		return false
	}
	for _, kw := range keywords {
		kw = NormalizeForMatch(kw)
		if kw != "" && strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}
