package model

import (
	"sort"
	"time"
)

// AnalyzeRequest describes one batch analysis.
type AnalyzeRequest struct {
	Symbols []string `json:"symbols"`
	Period  Period   `json:"period"`
	TopN    int      `json:"top_n"`
}

// BatchResult aggregates per-symbol outcomes of one request.
type BatchResult struct {
	ID          string                    `json:"id"`
	Period      Period                    `json:"period"`
	Requested   []string                  `json:"requested"`
	Succeeded   map[string]Recommendation `json:"succeeded"`
	Ranked      []Recommendation          `json:"ranked"`
	Failed      []string                  `json:"failed"`
	Failures    map[string]string         `json:"failures"`
	StartedAt   time.Time                 `json:"started_at"`
	CompletedAt time.Time                 `json:"completed_at"`
}

// TopBuys returns up to n BUY recommendations, strongest first.
// n <= 0 returns all of them.
func (r *BatchResult) TopBuys(n int) []Recommendation {
	return limit(r.filter(CategoryBuy), n)
}

// TopSells returns up to n SELL recommendations, most bearish first.
func (r *BatchResult) TopSells(n int) []Recommendation {
	sells := r.filter(CategorySell)
	sort.SliceStable(sells, func(i, j int) bool {
		if sells[i].Score != sells[j].Score {
			return sells[i].Score < sells[j].Score
		}
		return sells[i].Symbol < sells[j].Symbol
	})
	return limit(sells, n)
}

// Holds returns every HOLD recommendation in rank order.
func (r *BatchResult) Holds() []Recommendation {
	return r.filter(CategoryHold)
}

func (r *BatchResult) filter(c Category) []Recommendation {
	var out []Recommendation
	for _, rec := range r.Ranked {
		if rec.Category == c {
			out = append(out, rec)
		}
	}
	return out
}

func limit(recs []Recommendation, n int) []Recommendation {
	if n > 0 && len(recs) > n {
		return recs[:n]
	}
	return recs
}

// BatchSummary holds portfolio-level statistics.
type BatchSummary struct {
	Total        int     `json:"total"`
	Analyzed     int     `json:"analyzed"`
	Failed       int     `json:"failed"`
	Buys         int     `json:"buys"`
	Sells        int     `json:"sells"`
	Holds        int     `json:"holds"`
	Synthetic    int     `json:"synthetic"`
	AverageScore float64 `json:"average_score"`
	Highest      string  `json:"highest,omitempty"`
	Lowest       string  `json:"lowest,omitempty"`
}

// Summary computes aggregate statistics over the batch.
func (r *BatchResult) Summary() BatchSummary {
	s := BatchSummary{
		Total:    len(r.Requested),
		Analyzed: len(r.Ranked),
		Failed:   len(r.Failed),
	}
	if len(r.Ranked) == 0 {
		return s
	}
	sum := 0.0
	for _, rec := range r.Ranked {
		sum += rec.Score
		switch rec.Category {
		case CategoryBuy:
			s.Buys++
		case CategorySell:
			s.Sells++
		default:
			s.Holds++
		}
		if rec.Synthetic {
			s.Synthetic++
		}
	}
	s.AverageScore = sum / float64(len(r.Ranked))
	s.Highest = r.Ranked[0].Symbol
	s.Lowest = r.Ranked[len(r.Ranked)-1].Symbol
	return s
}
