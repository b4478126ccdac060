// Package cooccurrence aggregates conversation participation facts into
// undirected pair statistics.
package cooccurrence

import (
	"sort"
	"time"

	"github.com/Ramsey-B/tendril/pkg/models"
)

type pairKey struct {
	a string
	b string
}

type conversation struct {
	messageCounts map[string]int
	first         time.Time
	last          time.Time
}

// Mine turns raw participation facts into per-pair statistics. Contact IDs are
// canonicalized through resolve first, so two raw identifiers of the same
// person count as one participant; a conversation they share with nobody else
// produces no pair at all. Output is sorted by (A, B) and A < B always holds.
func Mine(facts []models.ParticipationFact, resolve func(string) string) []models.PairStats {
	conversations := make(map[string]*conversation)
	for _, f := range facts {
		conv, ok := conversations[f.ConversationID]
		if !ok {
			conv = &conversation{messageCounts: make(map[string]int)}
			conversations[f.ConversationID] = conv
		}

		canonicalID := resolve(f.ContactID)
		conv.messageCounts[canonicalID]++

		if conv.first.IsZero() || f.MessageAt.Before(conv.first) {
			conv.first = f.MessageAt
		}
		if f.MessageAt.After(conv.last) {
			conv.last = f.MessageAt
		}
	}

	stats := make(map[pairKey]*models.PairStats)
	for _, conv := range conversations {
		participants := make([]string, 0, len(conv.messageCounts))
		for id := range conv.messageCounts {
			participants = append(participants, id)
		}
		sort.Strings(participants)

		for i := 0; i < len(participants); i++ {
			for j := i + 1; j < len(participants); j++ {
				a, b := participants[i], participants[j]
				key := pairKey{a: a, b: b}

				ps, ok := stats[key]
				if !ok {
					ps = &models.PairStats{A: a, B: b, FirstInteraction: conv.first, LastInteraction: conv.last}
					stats[key] = ps
				}

				ps.SharedConversations++
				ps.SharedMessages += conv.messageCounts[a] + conv.messageCounts[b]
				if conv.first.Before(ps.FirstInteraction) {
					ps.FirstInteraction = conv.first
				}
				if conv.last.After(ps.LastInteraction) {
					ps.LastInteraction = conv.last
				}
			}
		}
	}

	result := make([]models.PairStats, 0, len(stats))
	for _, ps := range stats {
		result = append(result, *ps)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].A != result[j].A {
			return result[i].A < result[j].A
		}
		return result[i].B < result[j].B
	})

	return result
}
