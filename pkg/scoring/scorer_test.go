package scoring

import (
	"testing"
	"time"

	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestScorer_Bounds(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		stats models.PairStats
	}{
		{"zero activity", models.PairStats{}},
		{"minimal", models.PairStats{SharedConversations: 1, SharedMessages: 1, LastInteraction: now}},
		{"typical", models.PairStats{SharedConversations: 10, SharedMessages: 80, LastInteraction: now.AddDate(0, -2, 0)}},
		{"above anchors", models.PairStats{SharedConversations: 5000, SharedMessages: 100000, LastInteraction: now}},
		{"ancient", models.PairStats{SharedConversations: 3, SharedMessages: 10, LastInteraction: now.AddDate(-5, 0, 0)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := s.Score(tc.stats, now)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestScorer_RecencyOrdering(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	recent := models.PairStats{
		SharedConversations: 5,
		SharedMessages:      40,
		LastInteraction:     now.AddDate(0, 0, -10),
	}
	stale := recent
	stale.LastInteraction = now.AddDate(0, 0, -400)

	assert.Greater(t, s.Score(recent, now), s.Score(stale, now))
}

func TestScorer_RecencyAnchors(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("full credit inside 30 days", func(t *testing.T) {
		assert.InDelta(t, 1.0, s.recencyDecay(now.AddDate(0, 0, -10), now), 1e-9)
		assert.InDelta(t, 1.0, s.recencyDecay(now, now), 1e-9)
	})

	t.Run("floor past 365 days", func(t *testing.T) {
		assert.InDelta(t, 0.1, s.recencyDecay(now.AddDate(0, 0, -365), now), 1e-9)
		assert.InDelta(t, 0.1, s.recencyDecay(now.AddDate(-10, 0, 0), now), 1e-9)
	})

	t.Run("linear in between", func(t *testing.T) {
		mid := s.recencyDecay(now.AddDate(0, 0, -197), now) // halfway through the window
		assert.InDelta(t, 0.55, mid, 0.01)
	})
}

func TestScorer_MaxedActivityScoresNearOne(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stats := models.PairStats{
		SharedConversations: 50,
		SharedMessages:      500,
		LastInteraction:     now,
	}
	assert.InDelta(t, 1.0, s.Score(stats, now), 1e-9)
}

func TestScorer_ZeroActivityScoresRecencyFloorOnly(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// No conversations or messages, last interaction unset (ancient): only
	// the recency floor contributes.
	score := s.Score(models.PairStats{}, now)
	assert.InDelta(t, 0.3*0.1, score, 1e-9)
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stats := models.PairStats{
		SharedConversations: 7,
		SharedMessages:      123,
		LastInteraction:     now.AddDate(0, 0, -90),
	}

	first := s.Score(stats, now)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, s.Score(stats, now))
	}
}

func TestLogScale(t *testing.T) {
	t.Run("zero is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, logScale(0, 50))
	})
	t.Run("negative is zero", func(t *testing.T) {
		assert.Equal(t, 0.0, logScale(-3, 50))
	})
	t.Run("max hits one", func(t *testing.T) {
		assert.InDelta(t, 1.0, logScale(50, 50), 1e-9)
	})
	t.Run("beyond max clamps to one", func(t *testing.T) {
		assert.Equal(t, 1.0, logScale(5000, 50))
	})
	t.Run("diminishing returns", func(t *testing.T) {
		lowGain := logScale(10, 50) - logScale(5, 50)
		highGain := logScale(45, 50) - logScale(40, 50)
		assert.Greater(t, lowGain, highGain)
	})
}
