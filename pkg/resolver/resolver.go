// Package resolver collapses duplicate contact records to one canonical
// identifier per real person before any graph operation runs.
package resolver

import (
	"sort"
	"strings"

	"github.com/Ramsey-B/tendril/pkg/models"
)

// Resolver maps raw contact identifiers to canonical identifiers. Contacts
// whose normalized display names are equal are treated as the same person.
type Resolver struct {
	canonical map[string]string
}

// Build constructs a resolver from the full contact set and the raw
// participation-fact count per contact. The canonical member of each duplicate
// group is the one with the most facts; ties go to the earliest-created record,
// then the smallest ID, so the choice never depends on input order.
func Build(contacts []models.Contact, factCounts map[string]int) *Resolver {
	groups := make(map[string][]models.Contact)
	for _, c := range contacts {
		key := normalizeName(c.DisplayName)
		if key == "" {
			// Unnamed contacts can never be grouped, they stay themselves.
			continue
		}
		groups[key] = append(groups[key], c)
	}

	canonical := make(map[string]string, len(contacts))
	for _, members := range groups {
		sort.Slice(members, func(i, j int) bool {
			a, b := members[i], members[j]
			if factCounts[a.ID] != factCounts[b.ID] {
				return factCounts[a.ID] > factCounts[b.ID]
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})

		winner := members[0].ID
		for _, m := range members {
			canonical[m.ID] = winner
		}
	}

	return &Resolver{canonical: canonical}
}

// Resolve maps a raw contact ID to its canonical ID. Unknown IDs resolve to
// themselves.
func (r *Resolver) Resolve(rawID string) string {
	if canonical, ok := r.canonical[rawID]; ok {
		return canonical
	}
	return rawID
}

// normalizeName lowercases and collapses all whitespace runs to single spaces.
func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
