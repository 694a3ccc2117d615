// Package scorer implements the five-component weighted ranking formula for
// hints, ported from
// _examples/original_source/src/nudge/core/scoring.py.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ipeerbhai/nudge/internal/matcher"
	"github.com/ipeerbhai/nudge/internal/model"
)

const (
	weightFrecency    = 0.30
	weightPriority    = 0.20
	weightConfidence  = 0.20
	weightSpecificity = 0.20
	weightRecency     = 0.10

	decayHours = 7 * 24 // decay time constant: 7 days (factor 1/e after 168h)
)

// Scorer ranks hints against a context using the store's eligibility
// reasons from the matcher.
type Scorer struct {
	matcher *matcher.Matcher
}

// New creates a Scorer backed by m for eligibility checks.
func New(m *matcher.Matcher) *Scorer {
	return &Scorer{matcher: m}
}

// CalculateFrecency scores how frequently and recently a hint was used.
func CalculateFrecency(useCount int, lastUsedAt string) float64 {
	if useCount == 0 {
		return 0.0
	}
	base := 1.0 - math.Exp(-float64(useCount)/10.0)

	if lastUsedAt != "" {
		if t, err := time.Parse(time.RFC3339, lastUsedAt); err == nil {
			hoursSince := time.Since(t).Hours()
			decay := math.Exp(-hoursSince / decayHours)
			base *= decay
		}
	}
	return base
}

// CalculateRecency scores how recently a hint was last updated. Malformed
// timestamps default to 0.5, matching the original's fallback.
func CalculateRecency(updatedAt string) float64 {
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return 0.5
	}
	hoursSince := time.Since(t).Hours()
	return math.Exp(-hoursSince / decayHours)
}

// ScoreHint computes the blended [0,1] score for a single hint.
func ScoreHint(hint model.Hint) float64 {
	frecency := CalculateFrecency(hint.UseCount, hint.LastUsedAt)

	priority := 0.5
	if hint.Meta.Priority != nil {
		priority = float64(*hint.Meta.Priority) / 10.0
	}

	confidence := 0.5
	if hint.Meta.Confidence != nil {
		confidence = *hint.Meta.Confidence
	}

	specificityCount := matcher.CountScopeSpecificity(hint.Meta.Scope)
	specificity := math.Min(float64(specificityCount)/5.0, 1.0)

	recency := CalculateRecency(hint.UpdatedAt)

	return weightFrecency*frecency +
		weightPriority*priority +
		weightConfidence*confidence +
		weightSpecificity*specificity +
		weightRecency*recency
}

// CreateMatchExplanation builds the human-readable explanation for a scored
// hint, echoing the matcher's reasons and appending humanised provenance.
func CreateMatchExplanation(hint model.Hint, score float64, matchReasons []string) model.MatchExplanation {
	reasons := append([]string(nil), matchReasons...)

	if hint.UseCount > 0 {
		if hint.LastUsedAt != "" {
			if t, err := time.Parse(time.RFC3339, hint.LastUsedAt); err == nil {
				delta := time.Since(t)
				switch {
				case delta < 5*time.Minute:
					reasons = append(reasons, fmt.Sprintf("recently used (%dm ago)", int(delta.Minutes())))
				case delta < time.Hour:
					reasons = append(reasons, fmt.Sprintf("used %d minutes ago", int(delta.Minutes())))
				case delta < 24*time.Hour:
					reasons = append(reasons, fmt.Sprintf("used %d hours ago", int(delta.Hours())))
				case delta < 48*time.Hour:
					reasons = append(reasons, "used yesterday")
				default:
					reasons = append(reasons, fmt.Sprintf("used %d days ago", int(delta.Hours()/24)))
				}
			}
		}
		plural := "s"
		if hint.UseCount == 1 {
			plural = ""
		}
		reasons = append(reasons, fmt.Sprintf("used %d time%s", hint.UseCount, plural))
	}

	if hint.Meta.Priority != nil && *hint.Meta.Priority >= 8 {
		reasons = append(reasons, fmt.Sprintf("high priority (%d/10)", *hint.Meta.Priority))
	}
	if hint.Meta.Confidence != nil && *hint.Meta.Confidence >= 0.8 {
		reasons = append(reasons, fmt.Sprintf("high confidence (%.1f)", *hint.Meta.Confidence))
	}

	return model.MatchExplanation{
		Matched: true,
		Score:   math.Round(score*100) / 100,
		Reasons: reasons,
	}
}

// HintRef addresses a single hint by its store coordinates for ranking.
type HintRef struct {
	Component string
	Key       string
	Hint      model.Hint
}

// Rank filters hints to those eligible under ctx, scores them, and returns
// them sorted by descending score. Ties keep the stable order hints were
// supplied in (the store iterates components/keys in insertion order).
func (s *Scorer) Rank(hints []HintRef, ctx model.Context) []model.HintMatch {
	matches := make([]model.HintMatch, 0, len(hints))

	for _, ref := range hints {
		eligible, reasons := s.matcher.IsEligible(ref.Hint, ctx)
		if !eligible {
			continue
		}
		score := ScoreHint(ref.Hint)
		explain := CreateMatchExplanation(ref.Hint, score, reasons)
		matches = append(matches, model.HintMatch{
			Component:    ref.Component,
			Key:          ref.Key,
			Hint:         ref.Hint,
			Score:        score,
			MatchExplain: explain,
		})
	}

	// Stable sort preserves insertion order for equal scores, per
	// SPEC_FULL.md's Open Questions decision on tie-breaking.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
