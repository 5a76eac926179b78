package insights

import (
	"sort"
	"strings"

	"reflectionsmatch/models"
)

const TrendingTagLimit = 5

// FilterReflections keeps records whose note, summary or any tag contains
// query, case-insensitively. An empty query returns records unchanged.
func FilterReflections(records []models.Reflection, query string) []models.Reflection {
	term := strings.ToLower(query)
	if term == "" {
		return records
	}
	out := make([]models.Reflection, 0, len(records))
	for _, r := range records {
		if matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.Reflection, term string) bool {
	if strings.Contains(strings.ToLower(r.UserNote), term) {
		return true
	}
	if strings.Contains(strings.ToLower(r.Summary), term) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

// TrendingTags counts case-folded tags across records and returns the most
// frequent, at most limit. Ties keep first-seen order.
func TrendingTags(records []models.Reflection, limit int) []string {
	if limit <= 0 {
		return []string{}
	}
	counts := map[string]int{}
	var order []string
	for _, r := range records {
		for _, t := range r.Tags {
			tag := strings.ToLower(t)
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	if order == nil {
		return []string{}
	}
	return order
}
