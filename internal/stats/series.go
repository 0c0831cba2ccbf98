package stats

import (
	"math"

	"github.com/go-gota/gota/series"
)

// 空序列返回 nil，调用方据此显示 n/a

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	return finite(series.Floats(vals).Mean())
}

func median(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	return finite(series.Floats(vals).Median())
}

// quantile 经验分位数（取累计占比首次达到 p 的值），p ∈ (0, 1]
func quantile(vals []float64, p float64) *float64 {
	if len(vals) == 0 || p <= 0 || p > 1 {
		return nil
	}
	return finite(series.Floats(vals).Quantile(p))
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func ratio(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}
