package scoring

import (
	"fmt"
	"sort"
	"time"

	"github.com/meghashyamc/docdisco/models"
)

// FreshnessWeight scales the freshness boost added to each result's score.
const FreshnessWeight = 0.5

type Scorer struct {
	now func() time.Time
}

type Option func(*Scorer)

// WithClock replaces the wall clock used as "now" when computing freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

func New(opts ...Option) *Scorer {
	s := &Scorer{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rerank scores each result as its relevance plus a freshness boost relative
// to the median modification time of the candidates, then orders them by
// descending score. limit <= 0 keeps every result.
func (s *Scorer) Rerank(results []models.SearchResult, peopleResults []models.PersonResult, limit int) models.SearchResultSet {
	now := s.now().UnixMilli()

	timestamps := make([]int64, 0, len(results))
	for _, r := range results {
		if r.Doc.ModificationTimestamp != 0 {
			timestamps = append(timestamps, r.Doc.ModificationTimestamp)
		}
	}
	medianModifiedTS := Median(timestamps)

	scored := make([]models.SearchResult, len(results))
	for i, r := range results {
		scored[i] = scoreResult(r, now, medianModifiedTS)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	totalCount := len(scored)
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}

	if peopleResults == nil {
		peopleResults = []models.PersonResult{}
	}

	return models.SearchResultSet{
		Results:       scored,
		PeopleResults: peopleResults,
		TotalCount:    totalCount,
		DebugLines:    []string{fmt.Sprintf("%d results", len(results))},
		DebugStats: &models.DebugStats{
			Freshness: &models.FreshnessStats{
				Now:              now,
				MedianModifiedTS: medianModifiedTS,
				ModifiedTSs:      timestamps,
			},
		},
	}
}

func scoreResult(result models.SearchResult, now int64, medianModifiedTS float64) models.SearchResult {
	irScore := result.Score
	freshnessBoost := freshness(result.Doc.ModificationTimestamp, now, medianModifiedTS)

	scored := result
	scored.Score = irScore + freshnessBoost
	scored.Intermediate = &models.Intermediate{IRScore: irScore, FreshnessBoost: freshnessBoost}
	scored.DebugLines = append([]string{}, result.DebugLines...)
	return scored
}

func freshness(modified int64, now int64, medianModifiedTS float64) float64 {
	span := float64(now) - medianModifiedTS
	if modified == 0 || span == 0 {
		return 0
	}
	return FreshnessWeight * (float64(modified) - medianModifiedTS) / span
}
