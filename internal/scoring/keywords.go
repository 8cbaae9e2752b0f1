package scoring

import "universe-curator/internal/domain"

// Tier is one keyword weight class. Keywords are matched case-insensitively
// as substrings; a subset of each tier's keywords carries a category tag
// that feeds category assignment.
type Tier struct {
	Weight     int
	Keywords   []string
	Categories map[string]domain.Category // keyword → category, subset of Keywords
}

// Tiers returns the keyword taxonomy: strong (10), moderate (5) and
// weak (2) AI signals.
func Tiers() []Tier {
	return []Tier{
		{
			Weight: 10,
			Keywords: []string{
				"artificial intelligence", "machine learning", "deep learning",
				"neural network", "large language model", "llm", "generative ai",
				"gpt", "transformer model", "ai chip", "gpu inference", "nvidia gpu",
				"neural processor", "tpu", "ai accelerator",
			},
			Categories: map[string]domain.Category{
				"ai chip":              domain.CategoryChip,
				"gpu inference":        domain.CategoryChip,
				"nvidia gpu":           domain.CategoryChip,
				"neural processor":     domain.CategoryChip,
				"tpu":                  domain.CategoryChip,
				"ai accelerator":       domain.CategoryChip,
				"large language model": domain.CategorySoftware,
				"llm":                  domain.CategorySoftware,
				"generative ai":        domain.CategorySoftware,
				"gpt":                  domain.CategorySoftware,
				"transformer model":    domain.CategorySoftware,
			},
		},
		{
			Weight: 5,
			Keywords: []string{
				"openai partnership", "anthropic", "ai partnership",
				"data center", "cloud ai", "ai-powered", "ai integration",
				"automation", "predictive analytics", "computer vision",
				"natural language processing", "nlp", "ai model",
			},
			Categories: map[string]domain.Category{
				"cloud ai":       domain.CategoryCloud,
				"data center":    domain.CategoryInfrastructure,
				"ai-powered":     domain.CategoryBeneficiary,
				"ai integration": domain.CategoryBeneficiary,
				"ai model":       domain.CategorySoftware,
			},
		},
		{
			Weight: 2,
			Keywords: []string{
				"algorithm", "data science", "analytics platform",
				"intelligent", "smart technology", "automated",
			},
			Categories: map[string]domain.Category{
				"analytics platform": domain.CategoryBeneficiary,
			},
		},
	}
}
