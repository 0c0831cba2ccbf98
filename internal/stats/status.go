package stats

import (
	"sort"

	"albstats/internal/model"
)

// StatusShare 状态分布
type StatusShare struct {
	Status  model.Status `json:"status"`
	Count   int          `json:"count"`
	Percent float64      `json:"percent"`
}

// StatusDistribution 状态分布及总数
type StatusDistribution struct {
	Total  int           `json:"total"`
	Shares []StatusShare `json:"shares"`
}

func buildStatusDistribution(members []model.Member) StatusDistribution {
	counts := make(map[model.Status]int)
	total := 0
	for _, m := range members {
		if m.Status == "" {
			continue
		}
		counts[m.Status]++
		total++
	}
	shares := make([]StatusShare, 0, len(counts))
	for s, c := range counts {
		shares = append(shares, StatusShare{
			Status:  s,
			Count:   c,
			Percent: float64(c) * 100 / float64(total),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Status < shares[j].Status
	})
	return StatusDistribution{Total: total, Shares: shares}
}
