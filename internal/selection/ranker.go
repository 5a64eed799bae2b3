package selection

import (
	"sort"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Ranker orders survivors by composite score and keeps the top N
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct {
	limit  int
	logger *logger.Logger
}

// NewRanker creates a new ranker. limit <= 0 uses contracts.MaxResults.
func NewRanker(limit int, log *logger.Logger) *Ranker {
	if limit <= 0 || limit > contracts.MaxResults {
		limit = contracts.MaxResults
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Ranker{limit: limit, logger: log}
}

// Rank sorts by composite score descending (ties keep encounter order),
// truncates to the limit and assigns 1-based ranks. The input slice is
// not modified.
func (r *Ranker) Rank(survivors []contracts.FilterResult) []contracts.FilterResult {
	ranked := make([]contracts.FilterResult, len(survivors))
	copy(ranked, survivors)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})

	if len(ranked) > r.limit {
		ranked = ranked[:r.limit]
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"survivors":  len(survivors),
			"selected":   len(ranked),
			"top_score":  ranked[0].CompositeScore,
			"top_symbol": ranked[0].Symbol,
		}).Info("Ranking completed")
	}

	return ranked
}
