package ranking

import (
	"fmt"
	"sort"

	"perlentaucher/internal/mediathek"
	"perlentaucher/internal/services"
)

// Scored pairs a candidate with its score and title similarity.
type Scored struct {
	Score      float64
	Similarity float64
	Candidate  mediathek.Candidate
}

// LowSimilarityError reports that the best candidate failed the stricter
// similarity floor. It matches services.ErrNotFound.
type LowSimilarityError struct {
	Best      Scored
	Threshold float64
}

func (e *LowSimilarityError) Error() string {
	return fmt.Sprintf("best match %q has title similarity %.2f below %.2f", e.Best.Candidate.Title, e.Best.Similarity, e.Threshold)
}

func (e *LowSimilarityError) Unwrap() error { return services.ErrNotFound }

// Rank drops candidates below the discard floor unless one title contains
// the other, scores the rest and sorts them by descending score. Ties keep
// catalog order.
func (s Scorer) Rank(candidates []mediathek.Candidate, q Query) []Scored {
	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		b := s.Explain(c, q)
		if b.Similarity < s.Weights.DiscardBelow && !Contained(q.Title, c.Title) {
			continue
		}
		ranked = append(ranked, Scored{Score: b.Total(), Similarity: b.Similarity, Candidate: c})
	}
	sortScored(ranked)
	return ranked
}

// RankAll scores every candidate without the similarity floor. Series
// episodes rarely repeat the series title in their own title.
func (s Scorer) RankAll(candidates []mediathek.Candidate, q Query) []Scored {
	ranked := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		b := s.Explain(c, q)
		ranked = append(ranked, Scored{Score: b.Total(), Similarity: b.Similarity, Candidate: c})
	}
	sortScored(ranked)
	return ranked
}

// SelectBest ranks candidates and returns the winner. It fails with
// services.ErrNotFound when nothing survives the discard floor and with a
// *LowSimilarityError when the winner's similarity alone is below the
// rejection floor.
func (s Scorer) SelectBest(candidates []mediathek.Candidate, q Query) (Scored, []Scored, error) {
	ranked := s.Rank(candidates, q)
	if len(ranked) == 0 {
		return Scored{}, nil, services.Wrap(services.ErrNotFound, "ranking", "select", fmt.Sprintf("no usable candidate for %q", q.Title), nil)
	}
	best := ranked[0]
	if best.Similarity < s.Weights.RejectBestBelow {
		return Scored{}, ranked, &LowSimilarityError{Best: best, Threshold: s.Weights.RejectBestBelow}
	}
	return best, ranked, nil
}

func sortScored(ranked []Scored) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
}
