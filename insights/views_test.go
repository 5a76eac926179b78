package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reflectionsmatch/models"
)

func rec(id int64, note, summary string, tags ...string) models.Reflection {
	return models.Reflection{ID: id, UserNote: note, Summary: summary, Tags: tags}
}

func ids(rs []models.Reflection) []int64 {
	out := make([]int64, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterReflections_EmptyQueryReturnsInputInOrder(t *testing.T) {
	in := []models.Reflection{rec(3, "c", ""), rec(1, "a", ""), rec(2, "b", "")}
	got := FilterReflections(in, "")
	assert.Equal(t, []int64{3, 1, 2}, ids(got))
}

func TestFilterReflections_CaseInsensitiveAcrossFields(t *testing.T) {
	in := []models.Reflection{
		rec(1, "", "", "Cooking"),
		rec(2, "Went to a COOKery class", ""),
		rec(3, "", "A summary about cooks"),
		rec(4, "gardening", "plants", "outdoors"),
	}
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterReflections(in, "cook")))
	assert.Equal(t, []int64{1, 2, 3}, ids(FilterReflections(in, "COOK")))
	assert.Equal(t, []int64{4}, ids(FilterReflections(in, "Plant")))
	assert.Empty(t, FilterReflections(in, "astronomy"))
}

func TestFilterReflections_QueryNotTrimmed(t *testing.T) {
	in := []models.Reflection{rec(1, "machine learning", "")}
	assert.Len(t, FilterReflections(in, "machine "), 1)
	assert.Empty(t, FilterReflections(in, " machine"))
}

func TestTrendingTags_CaseFoldedBucket(t *testing.T) {
	in := []models.Reflection{rec(1, "", "", "AI"), rec(2, "", "", "ai")}
	assert.Equal(t, []string{"ai"}, TrendingTags(in, TrendingTagLimit))
}

func TestTrendingTags_OrderAndLimit(t *testing.T) {
	in := []models.Reflection{
		rec(1, "", "", "go", "rust", "zig"),
		rec(2, "", "", "python", "Rust"),
		rec(3, "", "", "java", "kotlin", "RUST"),
		rec(4, "", "", "python", "scala"),
	}
	got := TrendingTags(in, TrendingTagLimit)
	assert.Len(t, got, 5)
	// rust 3, python 2, then ties at 1 in first-seen order
	assert.Equal(t, []string{"rust", "python", "go", "zig", "java"}, got)
}

func TestTrendingTags_Empty(t *testing.T) {
	assert.Equal(t, []string{}, TrendingTags(nil, TrendingTagLimit))
	assert.Equal(t, []string{}, TrendingTags([]models.Reflection{rec(1, "note", "")}, TrendingTagLimit))
}
