package search

import (
	"context"
	"sort"

	"github.com/meghashyamc/docdisco/models"
)

const peopleResultLimit = 5

type authorTally struct {
	person        models.Person
	docs          map[string]bool
	contributions int
}

// QueryPeopleForDocuments ranks the authors of the given documents by the
// number of distinct documents they contributed to, then by total
// contributions, and returns the top five.
func (e *Engine) QueryPeopleForDocuments(ctx context.Context, docIDs []string) ([]models.PersonResult, error) {
	if len(docIDs) == 0 {
		return []models.PersonResult{}, nil
	}

	contribs, err := e.store.FindContributionsForDocs(ctx, docIDs)
	if err != nil {
		return nil, err
	}

	tallies := make(map[string]*authorTally)
	for _, c := range contribs {
		if c.Author == nil || c.Author.ID == "" {
			continue
		}
		tally, ok := tallies[c.Author.ID]
		if !ok {
			tally = &authorTally{docs: make(map[string]bool)}
			tallies[c.Author.ID] = tally
		}
		tally.person = *c.Author
		tally.docs[c.DocID] = true
		tally.contributions++
	}

	people := make([]models.PersonResult, 0, len(tallies))
	for _, tally := range tallies {
		people = append(people, models.PersonResult{
			Person:            tally.person,
			DocCount:          len(tally.docs),
			ContributionCount: tally.contributions,
		})
	}

	sort.Slice(people, func(i, j int) bool {
		if people[i].DocCount != people[j].DocCount {
			return people[i].DocCount > people[j].DocCount
		}
		if people[i].ContributionCount != people[j].ContributionCount {
			return people[i].ContributionCount > people[j].ContributionCount
		}
		return people[i].Person.ID < people[j].Person.ID
	})

	if len(people) > peopleResultLimit {
		people = people[:peopleResultLimit]
	}
	return people, nil
}
