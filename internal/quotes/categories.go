package quotes

import (
	"sort"
	"strings"

	"github.com/marcus/quotes/internal/models"
)

// Categories returns the distinct non-empty category labels in c, sorted.
func Categories(c models.Collection) []string {
	seen := make(map[string]bool, len(c))
	out := make([]string, 0, len(c))
	for _, r := range c {
		cat := strings.TrimSpace(r.Category)
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the records in category, preserving order.
// An empty category (or "all") returns the whole collection.
func ByCategory(c models.Collection, category string) models.Collection {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return c.Clone()
	}
	out := models.Collection{}
	for _, r := range c {
		if strings.TrimSpace(r.Category) == category {
			out = append(out, r)
		}
	}
	return out
}

// AllCategories is the filter value that disables category filtering
const AllCategories = "all"
