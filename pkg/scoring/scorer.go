// Package scoring converts co-occurrence pair statistics into a normalized
// relationship strength.
package scoring

import (
	"math"
	"time"

	"github.com/Ramsey-B/tendril/pkg/models"
)

// Config holds the scoring anchors. MaxConversations and MaxMessages are the
// "typical maximum" counts that map near 1.0 on the log scale.
type Config struct {
	MaxConversations int
	MaxMessages      int
	RecencyFullDays  int
	RecencyFloorDays int
	RecencyFloor     float64
}

// DefaultConfig returns the standard scoring anchors.
func DefaultConfig() Config {
	return Config{
		MaxConversations: 50,
		MaxMessages:      500,
		RecencyFullDays:  30,
		RecencyFloorDays: 365,
		RecencyFloor:     0.1,
	}
}

const (
	conversationWeight = 0.40
	messageWeight      = 0.30
	recencyWeight      = 0.30
)

// Scorer computes relationship strength from pair statistics.
type Scorer struct {
	config Config
}

// NewScorer creates a scorer with the given anchors.
func NewScorer(config Config) *Scorer {
	return &Scorer{config: config}
}

// Score returns a strength in [0.0, 1.0]. The caller passes the reference time
// so that one inference run scores every pair against the same clock.
func (s *Scorer) Score(stats models.PairStats, now time.Time) float64 {
	score := conversationWeight*logScale(stats.SharedConversations, s.config.MaxConversations) +
		messageWeight*logScale(stats.SharedMessages, s.config.MaxMessages) +
		recencyWeight*s.recencyDecay(stats.LastInteraction, now)

	return clamp(score, 0.0, 1.0)
}

// logScale maps a count to [0, 1] with diminishing returns, hitting 1.0 at the
// configured maximum.
func logScale(n, max int) float64 {
	if n <= 0 || max <= 0 {
		return 0.0
	}
	return math.Min(1.0, math.Log1p(float64(n))/math.Log1p(float64(max)))
}

// recencyDecay is 1.0 up to RecencyFullDays since the last interaction,
// RecencyFloor past RecencyFloorDays, and linear in between. Recency alone
// never zeroes a real relationship.
func (s *Scorer) recencyDecay(last, now time.Time) float64 {
	days := now.Sub(last).Hours() / 24

	full := float64(s.config.RecencyFullDays)
	floor := float64(s.config.RecencyFloorDays)

	if days <= full {
		return 1.0
	}
	if days >= floor {
		return s.config.RecencyFloor
	}

	fraction := (days - full) / (floor - full)
	return clamp(1.0-fraction*(1.0-s.config.RecencyFloor), s.config.RecencyFloor, 1.0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
