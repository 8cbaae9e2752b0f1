// Package scoring implements stage-1 lexical relevance scoring.
// Scoring is pure and deterministic: identical input always yields
// identical output.
package scoring

import (
	"sort"
	"strings"

	"universe-curator/internal/domain"
)

// MaxScore is the upper clip bound for lexical scores.
const MaxScore = 100

// Result holds the stage-1 score and candidate category.
type Result struct {
	Score    int
	Category domain.Category
	Matched  []string // distinct keywords that contributed, for the notes field
}

// Score maps a description and recent headlines to a tier-weighted
// relevance score in [0,100] and a candidate category. Headlines use the
// same tier weights as the description. Every occurrence of a keyword
// counts; repeated emphasis is deliberate signal, not noise.
func Score(text string, headlines []string) Result {
	corpus := make([]string, 0, len(headlines)+1)
	if text != "" {
		corpus = append(corpus, strings.ToLower(text))
	}
	for _, h := range headlines {
		if h != "" {
			corpus = append(corpus, strings.ToLower(h))
		}
	}

	total := 0
	contributions := make(map[domain.Category]int)
	var matched []string
	seen := make(map[string]bool)

	for _, tier := range Tiers() {
		for _, keyword := range tier.Keywords {
			occurrences := 0
			for _, body := range corpus {
				occurrences += strings.Count(body, keyword)
			}
			if occurrences == 0 {
				continue
			}

			total += occurrences * tier.Weight
			if cat, tagged := tier.Categories[keyword]; tagged {
				contributions[cat] += occurrences * tier.Weight
			}
			if !seen[keyword] {
				seen[keyword] = true
				matched = append(matched, keyword)
			}
		}
	}

	if total > MaxScore {
		total = MaxScore
	}

	return Result{
		Score:    total,
		Category: dominantCategory(contributions),
		Matched:  matched,
	}
}

// dominantCategory picks the category with the highest cumulative tagged
// contribution. Ties break by category name ascending so the result is
// deterministic.
func dominantCategory(contributions map[domain.Category]int) domain.Category {
	if len(contributions) == 0 {
		return domain.CategoryNone
	}

	categories := make([]domain.Category, 0, len(contributions))
	for cat := range contributions {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i] < categories[j]
	})

	best := categories[0]
	for _, cat := range categories[1:] {
		if contributions[cat] > contributions[best] {
			best = cat
		}
	}
	return best
}

// Clip bounds a score to [0,MaxScore].
func Clip(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
