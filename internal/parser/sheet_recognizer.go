package parser

// HeaderMatch 表头识别结果
type HeaderMatch struct {
	Sheet      string
	Row        int // 从 0 开始；未找到时为 -1
	Matched    int
	Confidence float64
	Missing    []string
}

// SheetRecognizer 按关键列识别导出表的表头行
type SheetRecognizer struct {
	keyFields []string
	wanted    map[string]int
}

// NewSheetRecognizer 创建识别器，keyFields 为必须出现的列名
func NewSheetRecognizer(keyFields []string) *SheetRecognizer {
	wanted := make(map[string]int, len(keyFields))
	for i, f := range keyFields {
		wanted[NormalizeForMatch(f)] = i
	}
	return &SheetRecognizer{keyFields: keyFields, wanted: wanted}
}

// Recognize 在前 maxRows 行中找命中关键列最多的一行；并列时取最上面的
func (r *SheetRecognizer) Recognize(sheet string, rows [][]string, maxRows int) HeaderMatch {
	best := HeaderMatch{Sheet: sheet, Row: -1, Missing: append([]string(nil), r.keyFields...)}
	if len(r.keyFields) == 0 {
		return best
	}
	for i := 0; i < len(rows) && i < maxRows; i++ {
		hit := make([]bool, len(r.keyFields))
		matched := 0
		for _, cell := range rows[i] {
			if idx, ok := r.wanted[NormalizeForMatch(cell)]; ok && !hit[idx] {
				hit[idx] = true
				matched++
			}
		}
		if matched <= best.Matched {
			continue
		}
		best.Row = i
		best.Matched = matched
		best.Confidence = float64(matched) / float64(len(r.keyFields))
		best.Missing = best.Missing[:0]
		for idx, ok := range hit {
			if !ok {
				best.Missing = append(best.Missing, r.keyFields[idx])
			}
		}
		if matched == len(r.keyFields) {
			break
		}
	}
	return best
}

// Best 多个工作表中置信度最高的一个；全部为零时返回 false
func Best(matches []HeaderMatch) (HeaderMatch, bool) {
	var best HeaderMatch
	found := false
	for _, m := range matches {
		if m.Confidence > best.Confidence {
			best, found = m, true
		}
	}
	return best, found
}
