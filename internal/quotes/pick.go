package quotes

import (
	"math/rand/v2"

	"github.com/marcus/quotes/internal/models"
	"github.com/sahilm/fuzzy"
)

// Random returns a uniformly chosen record, or false for an empty collection
func Random(c models.Collection) (models.Record, bool) {
	if len(c) == 0 {
		return models.Record{}, false
	}
	return c[rand.IntN(len(c))], true
}

// FindText returns the first record whose text equals text
func FindText(c models.Collection, text string) (models.Record, bool) {
	for _, r := range c {
		if r.Text == text {
			return r, true
		}
	}
	return models.Record{}, false
}

// searchSource adapts a collection to fuzzy.Source, matching on
// "text category" so either field can hit.
type searchSource models.Collection

func (s searchSource) String(i int) string { return s[i].Text + " " + s[i].Category }
func (s searchSource) Len() int            { return len(s) }

// Search returns records fuzzily matching query, best match first.
// An empty query returns nothing.
func Search(c models.Collection, query string) models.Collection {
	if query == "" {
		return models.Collection{}
	}
	matches := fuzzy.FindFrom(query, searchSource(c))
	out := make(models.Collection, 0, len(matches))
	for _, m := range matches {
		out = append(out, c[m.Index])
	}
	return out
}
