package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/meghashyamc/docdisco/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

const day = int64(24 * time.Hour / time.Millisecond)

func newTestScorer() *Scorer {
	return New(WithClock(func() time.Time { return testNow }))
}

func result(id string, modified int64, score float64) models.SearchResult {
	return models.NewScoredSearchResult(models.Document{ID: id, ModificationTimestamp: modified}, score)
}

func resultIDs(set models.SearchResultSet) []string {
	return set.DocIDs()
}

var medianTestCases = []struct {
	name     string
	values   []int64
	expected float64
}{
	{name: "Empty", values: nil, expected: 0},
	{name: "Single", values: []int64{5}, expected: 5},
	{name: "Pair", values: []int64{1, 3}, expected: 2},
	{name: "Even", values: []int64{1, 2, 3, 4}, expected: 2.5},
	{name: "OddUnsorted", values: []int64{9, 1, 5}, expected: 5},
	{name: "EvenUnsorted", values: []int64{4, 1, 3, 2}, expected: 2.5},
}

func TestMedian(t *testing.T) {
	for _, testCase := range medianTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, Median(testCase.values))
		})
	}
}

func TestMedianLeavesInputUnsorted(t *testing.T) {
	assert := require.New(t)
	values := []int64{3, 1, 2}
	Median(values)
	assert.Equal([]int64{3, 1, 2}, values)
}

func TestRerankPrefersFresherDocuments(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	set := newTestScorer().Rerank([]models.SearchResult{
		result("tenDays", now-10*day, 1),
		result("oneDay", now-1*day, 1),
		result("fiveDays", now-5*day, 1),
	}, nil, 0)

	assert.Equal([]string{"oneDay", "fiveDays", "tenDays"}, resultIDs(set))
	assert.Equal(3, set.TotalCount)
	assert.Equal([]string{"3 results"}, set.DebugLines)
	assert.NotNil(set.PeopleResults)

	// the median document gets no boost
	assert.Equal(1.0, set.Results[1].Score)
	assert.Equal(1.0, set.Results[1].Intermediate.IRScore)
	assert.Equal(0.0, set.Results[1].Intermediate.FreshnessBoost)
	assert.Greater(set.Results[0].Intermediate.FreshnessBoost, 0.0)
	assert.Less(set.Results[2].Intermediate.FreshnessBoost, 0.0)

	assert.NotNil(set.DebugStats)
	assert.Equal(now, set.DebugStats.Freshness.Now)
	assert.Equal(float64(now-5*day), set.DebugStats.Freshness.MedianModifiedTS)
	assert.Len(set.DebugStats.Freshness.ModifiedTSs, 3)
}

func TestRerankBoostFormula(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	// median is now-2d; a doc modified now gets the full weight
	set := newTestScorer().Rerank([]models.SearchResult{
		result("a", now, 0),
		result("b", now-4*day, 0),
	}, nil, 0)

	assert.Equal("a", set.Results[0].Doc.ID)
	assert.InDelta(FreshnessWeight, set.Results[0].Score, 1e-9)
	assert.InDelta(-FreshnessWeight, set.Results[1].Score, 1e-9)
}

func TestRerankRelevanceStillCounts(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	set := newTestScorer().Rerank([]models.SearchResult{
		result("fresh", now-1*day, 0.1),
		result("relevant", now-3*day, 5),
	}, nil, 0)

	assert.Equal([]string{"relevant", "fresh"}, resultIDs(set))
}

func TestRerankTruncates(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	results := make([]models.SearchResult, 20)
	for i := range results {
		results[i] = result(fmt.Sprintf("doc%02d", i), now-int64(i+1)*day, 1)
	}

	set := newTestScorer().Rerank(results, nil, 5)
	assert.Len(set.Results, 5)
	assert.Equal(20, set.TotalCount)
	assert.Equal([]string{"doc00", "doc01", "doc02", "doc03", "doc04"}, resultIDs(set))

	set = newTestScorer().Rerank(results, nil, 0)
	assert.Len(set.Results, 20)
}

func TestRerankGuardsZeroSpan(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	set := newTestScorer().Rerank([]models.SearchResult{result("only", now, 2)}, nil, 0)
	assert.Equal(2.0, set.Results[0].Score)
	assert.Equal(0.0, set.Results[0].Intermediate.FreshnessBoost)
}

func TestRerankMissingTimestamps(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	set := newTestScorer().Rerank([]models.SearchResult{
		result("undated", 0, 1),
		result("old", now-10*day, 1),
		result("new", now-1*day, 1),
	}, nil, 0)

	assert.Equal(float64(now-10*day+now-1*day)/2, set.DebugStats.Freshness.MedianModifiedTS)
	assert.Equal([]string{"new", "undated", "old"}, resultIDs(set))
	assert.Equal(0.0, set.Results[1].Intermediate.FreshnessBoost)
}

func TestRerankIsStable(t *testing.T) {
	assert := require.New(t)

	set := newTestScorer().Rerank([]models.SearchResult{
		result("first", 0, 1),
		result("second", 0, 1),
		result("third", 0, 1),
	}, nil, 0)

	assert.Equal([]string{"first", "second", "third"}, resultIDs(set))
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	assert := require.New(t)
	now := testNow.UnixMilli()

	input := []models.SearchResult{result("a", now-1*day, 1), result("b", now-9*day, 1)}
	newTestScorer().Rerank(input, nil, 0)

	assert.Equal(1.0, input[0].Score)
	assert.Nil(input[0].Intermediate)
}

func TestRerankEmpty(t *testing.T) {
	assert := require.New(t)

	people := []models.PersonResult{{Person: models.Person{ID: "p"}, DocCount: 1}}
	set := newTestScorer().Rerank(nil, people, 4)
	assert.Empty(set.Results)
	assert.Equal(0, set.TotalCount)
	assert.Equal(people, set.PeopleResults)
}
