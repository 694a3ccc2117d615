package scorer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ipeerbhai/nudge/internal/matcher"
	"github.com/ipeerbhai/nudge/internal/model"
)

func TestCalculateFrecency_ZeroUseCount(t *testing.T) {
	assert.Equal(t, 0.0, CalculateFrecency(0, ""))
}

func TestCalculateFrecency_DecaysWithAge(t *testing.T) {
	recent := CalculateFrecency(5, time.Now().UTC().Format(time.RFC3339))
	old := CalculateFrecency(5, time.Now().Add(-30*24*time.Hour).UTC().Format(time.RFC3339))
	assert.Greater(t, recent, old)
}

func TestCalculateRecency_DefaultsOnMalformed(t *testing.T) {
	assert.Equal(t, 0.5, CalculateRecency("not-a-time"))
}

func TestScoreHint_InUnitRange(t *testing.T) {
	priority := 9
	confidence := 0.9
	hint := model.Hint{
		UseCount:   5,
		LastUsedAt: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
		Meta: model.HintMeta{
			Priority:   &priority,
			Confidence: &confidence,
		},
	}
	score := ScoreHint(hint)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	m := matcher.New(0)
	s := New(m)

	priorityA := 9
	hintA := model.Hint{
		Value:      model.StringValue("a"),
		UseCount:   5,
		LastUsedAt: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
		Meta:       model.HintMeta{Priority: &priorityA},
	}
	priorityB := 5
	hintB := model.Hint{
		Value:     model.StringValue("b"),
		UseCount:  0,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Meta:      model.HintMeta{Priority: &priorityB},
	}

	matches := s.Rank([]HintRef{
		{Component: "c", Key: "b", Hint: hintB},
		{Component: "c", Key: "a", Hint: hintA},
	}, model.Context{})

	assert.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].Key)
	assert.Equal(t, "b", matches[1].Key)
	assert.Contains(t, matches[0].MatchExplain.Reasons, "high priority (9/10)")
	assert.Contains(t, matches[0].MatchExplain.Reasons, "used 1 hours ago")
}

func TestRank_FiltersIneligible(t *testing.T) {
	m := matcher.New(0)
	s := New(m)

	hint := model.Hint{
		Value: model.StringValue("v"),
		Meta:  model.HintMeta{Scope: &model.Scope{Branch: []string{"main"}}},
	}
	matches := s.Rank([]HintRef{{Component: "c", Key: "k", Hint: hint}}, model.Context{Branch: "other"})
	assert.Empty(t, matches)
}

func TestRank_StableOnTies(t *testing.T) {
	m := matcher.New(0)
	s := New(m)

	hint := model.Hint{Value: model.StringValue("v")}
	matches := s.Rank([]HintRef{
		{Component: "c", Key: "first", Hint: hint},
		{Component: "c", Key: "second", Hint: hint},
	}, model.Context{})

	assert.Equal(t, "first", matches[0].Key)
	assert.Equal(t, "second", matches[1].Key)
}
