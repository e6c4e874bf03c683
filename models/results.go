package models

// DefaultScore is assigned to results that carry no relevance score of their own.
const DefaultScore = -1

type Intermediate struct {
	IRScore        float64 `json:"ir_score"`
	FreshnessBoost float64 `json:"freshness_boost"`
}

type SearchResult struct {
	Doc          Document      `json:"doc"`
	Score        float64       `json:"score"`
	Intermediate *Intermediate `json:"intermediate,omitempty"`
	DebugLines   []string      `json:"debug_lines"`
}

type PersonResult struct {
	Person            Person `json:"person"`
	DocCount          int    `json:"doc_count"`
	ContributionCount int    `json:"contribution_count"`
}

// FreshnessStats is carried along for render-time histograms. It never
// feeds back into scoring.
type FreshnessStats struct {
	Now              int64   `json:"now"`
	MedianModifiedTS float64 `json:"median_modified_ts"`
	ModifiedTSs      []int64 `json:"modified_tss"`
}

type DebugStats struct {
	Freshness *FreshnessStats `json:"freshness,omitempty"`
}

// SearchResultSet holds results ordered by descending score. TotalCount is the
// number of candidates before truncation, not len(Results).
type SearchResultSet struct {
	Results       []SearchResult `json:"results"`
	PeopleResults []PersonResult `json:"people_results"`
	TotalCount    int            `json:"total_count"`
	DebugLines    []string       `json:"debug_lines"`
	DebugStats    *DebugStats    `json:"debug_stats,omitempty"`
}

// NewSearchResult builds an unscored result for a document.
func NewSearchResult(doc Document) SearchResult {
	return NewScoredSearchResult(doc, DefaultScore)
}

func NewScoredSearchResult(doc Document, score float64) SearchResult {
	return SearchResult{
		Doc:        doc,
		Score:      score,
		DebugLines: []string{},
	}
}

func NewSearchResultSet(results []SearchResult, totalCount int) SearchResultSet {
	return SearchResultSet{
		Results:       results,
		TotalCount:    totalCount,
		PeopleResults: []PersonResult{},
		DebugLines:    []string{},
	}
}

// DocIDs returns the document ids of the results, in order.
func (s SearchResultSet) DocIDs() []string {
	ids := make([]string, len(s.Results))
	for i, r := range s.Results {
		ids[i] = r.Doc.ID
	}
	return ids
}
