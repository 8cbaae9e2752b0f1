package adjudicator

import (
	"fmt"
	"strings"

	"universe-curator/internal/domain"
	"universe-curator/internal/scoring"
)

const systemPrompt = `You validate whether a public company has genuine AI industry involvement, as opposed to marketing language or passing mentions. Respond with a single JSON object:
{"is_genuine": bool, "category": string, "confidence": int 0-100, "adjustment": int -20 to 20, "rationale": string}
"category" must be one of: ai_chip, ai_software, ai_cloud, ai_infrastructure, ai_beneficiary, none, or empty to keep the current one.
"adjustment" is a signed correction to the keyword-based score: positive if the evidence understates real AI involvement, negative if the mentions are superficial.`

// maxPromptHeadlines caps evidence size sent to the collaborator.
const maxPromptHeadlines = 10

// buildPrompt renders the per-ticker user message.
func buildPrompt(ticker string, stage1 scoring.Result, ev *domain.Evidence) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Ticker: %s\n", ticker)
	if ev.CompanyName != "" {
		fmt.Fprintf(&sb, "Company: %s\n", ev.CompanyName)
	}
	if ev.Sector != "" {
		fmt.Fprintf(&sb, "Sector: %s\n", ev.Sector)
	}
	fmt.Fprintf(&sb, "Keyword score: %d (category %s)\n", stage1.Score, stage1.Category)
	if len(stage1.Matched) > 0 {
		fmt.Fprintf(&sb, "Matched keywords: %s\n", strings.Join(stage1.Matched, ", "))
	}

	if ev.Description != "" {
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", ev.Description)
	}

	if len(ev.Headlines) > 0 {
		sb.WriteString("\nRecent headlines:\n")
		for i, h := range ev.Headlines {
			if i >= maxPromptHeadlines {
				break
			}
			fmt.Fprintf(&sb, "- %s\n", h)
		}
	}

	return sb.String()
}
