// Package adjudicator refines ambiguous stage-1 classifications with one
// bounded LLM call per ticker.
package adjudicator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"universe-curator/internal/domain"
	"universe-curator/internal/jsonutil"
	"universe-curator/internal/llm"
	"universe-curator/internal/scoring"
)

// Ambiguous band bounds, inclusive. Scores outside it pass through
// without spending an LLM call.
const (
	BandLow  = 30
	BandHigh = 70

	// MaxAdjustment bounds the signed score adjustment either way.
	MaxAdjustment = 20

	callTimeout = 45 * time.Second
)

// Outcome is the final classification for one ticker.
type Outcome struct {
	Score       int
	Category    domain.Category
	Adjudicated bool   // an LLM call was made and applied
	Degraded    bool   // the call failed; stage-1 values were kept
	Rationale   string // collaborator reasoning, empty on pass-through
}

// Adjudicator invokes the classification collaborator for scores inside
// the ambiguous band.
type Adjudicator struct {
	client llm.Client
	model  string
	logger *zap.Logger
}

// New creates an Adjudicator.
func New(client llm.Client, model string, logger *zap.Logger) *Adjudicator {
	return &Adjudicator{
		client: client,
		model:  model,
		logger: logger,
	}
}

// verdict is the collaborator's response payload. Untrusted: every field
// is validated before it is applied.
type verdict struct {
	IsGenuine  bool   `json:"is_genuine"`
	Category   string `json:"category"`
	Confidence int    `json:"confidence"`
	Adjustment int    `json:"adjustment"`
	Rationale  string `json:"rationale"`
}

// Adjudicate refines a stage-1 result. Never returns an error: any
// collaborator failure degrades to the stage-1 values so a single ticker
// cannot fail the batch.
func (a *Adjudicator) Adjudicate(ctx context.Context, ticker string, stage1 scoring.Result, ev *domain.Evidence) Outcome {
	if stage1.Score < BandLow || stage1.Score > BandHigh {
		return Outcome{Score: stage1.Score, Category: stage1.Category}
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	result, err := a.client.Chat(callCtx, llm.Request{
		Model: a.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(ticker, stage1, ev)},
		},
		ForceJSON: true,
	})
	if err != nil {
		a.logger.Warn("adjudication degraded",
			zap.String("ticker", ticker),
			zap.Int("stage1_score", stage1.Score),
			zap.Error(err))
		return Outcome{Score: stage1.Score, Category: stage1.Category, Degraded: true}
	}

	var v verdict
	if err := jsonutil.Decode(result.Text, &v); err != nil {
		a.logger.Warn("adjudication payload malformed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return Outcome{Score: stage1.Score, Category: stage1.Category, Degraded: true}
	}

	return a.apply(ticker, stage1, v)
}

// apply validates the verdict and produces the final outcome.
func (a *Adjudicator) apply(ticker string, stage1 scoring.Result, v verdict) Outcome {
	adjustment := v.Adjustment
	if adjustment > MaxAdjustment {
		adjustment = MaxAdjustment
	}
	if adjustment < -MaxAdjustment {
		adjustment = -MaxAdjustment
	}

	confidence := v.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	category := stage1.Category
	if v.Category != "" && domain.ValidCategory(v.Category) {
		category = domain.Category(v.Category)
	}

	out := Outcome{
		Score:       scoring.Clip(stage1.Score + adjustment),
		Category:    category,
		Adjudicated: true,
		Rationale:   fmt.Sprintf("genuine=%t confidence=%d adjustment=%+d %s", v.IsGenuine, confidence, adjustment, v.Rationale),
	}

	a.logger.Debug("adjudicated",
		zap.String("ticker", ticker),
		zap.Int("stage1_score", stage1.Score),
		zap.Int("final_score", out.Score),
		zap.String("category", string(out.Category)),
		zap.Bool("genuine", v.IsGenuine),
		zap.Int("confidence", confidence))

	return out
}
