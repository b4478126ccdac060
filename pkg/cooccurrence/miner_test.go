package cooccurrence

import (
	"testing"
	"time"

	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(id string) string { return id }

func fact(conv, contact string, at time.Time) models.ParticipationFact {
	return models.ParticipationFact{ConversationID: conv, ContactID: contact, MessageAt: at}
}

func TestMine_SinglePair(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	facts := []models.ParticipationFact{
		fact("conv1", "alice", base),
		fact("conv1", "alice", base.Add(time.Minute)),
		fact("conv1", "bob", base.Add(2*time.Minute)),
	}

	pairs := Mine(facts, identity)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "alice", p.A)
	assert.Equal(t, "bob", p.B)
	assert.Equal(t, 1, p.SharedConversations)
	assert.Equal(t, 3, p.SharedMessages)
	assert.Equal(t, base, p.FirstInteraction)
	assert.Equal(t, base.Add(2*time.Minute), p.LastInteraction)
}

func TestMine_MultipleConversationsAccumulate(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	facts := []models.ParticipationFact{
		fact("conv1", "alice", base),
		fact("conv1", "bob", base.Add(time.Hour)),
		fact("conv2", "alice", base.Add(48*time.Hour)),
		fact("conv2", "bob", base.Add(49*time.Hour)),
		fact("conv2", "bob", base.Add(50*time.Hour)),
	}

	pairs := Mine(facts, identity)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, 2, p.SharedConversations)
	assert.Equal(t, 5, p.SharedMessages)
	assert.Equal(t, base, p.FirstInteraction)
	assert.Equal(t, base.Add(50*time.Hour), p.LastInteraction)
}

func TestMine_SelfPairExcluded(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// bob1 and bob2 collapse to the same canonical contact, the conversation
	// has one real participant and must produce no pair.
	resolve := func(id string) string {
		if id == "bob2" {
			return "bob1"
		}
		return id
	}

	facts := []models.ParticipationFact{
		fact("conv1", "bob1", base),
		fact("conv1", "bob2", base.Add(time.Minute)),
	}

	pairs := Mine(facts, resolve)
	assert.Empty(t, pairs)
}

func TestMine_CollapsedDuplicateCountsOnce(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	resolve := func(id string) string {
		if id == "bob2" {
			return "bob1"
		}
		return id
	}

	facts := []models.ParticipationFact{
		fact("conv1", "bob1", base),
		fact("conv1", "bob2", base.Add(time.Minute)),
		fact("conv1", "carol", base.Add(2*time.Minute)),
	}

	pairs := Mine(facts, resolve)
	require.Len(t, pairs, 1)

	p := pairs[0]
	assert.Equal(t, "bob1", p.A)
	assert.Equal(t, "carol", p.B)
	assert.Equal(t, 1, p.SharedConversations)
	// Both raw bob identities fold into one participant's message count.
	assert.Equal(t, 3, p.SharedMessages)
}

func TestMine_ThreeParticipantsProduceThreePairs(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	facts := []models.ParticipationFact{
		fact("conv1", "carol", base),
		fact("conv1", "alice", base.Add(time.Minute)),
		fact("conv1", "bob", base.Add(2*time.Minute)),
	}

	pairs := Mine(facts, identity)
	require.Len(t, pairs, 3)

	// Sorted by (A, B), A < B on every pair.
	assert.Equal(t, "alice", pairs[0].A)
	assert.Equal(t, "bob", pairs[0].B)
	assert.Equal(t, "alice", pairs[1].A)
	assert.Equal(t, "carol", pairs[1].B)
	assert.Equal(t, "bob", pairs[2].A)
	assert.Equal(t, "carol", pairs[2].B)
}

func TestMine_NoSharedConversationNoPair(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	facts := []models.ParticipationFact{
		fact("conv1", "alice", base),
		fact("conv2", "bob", base),
	}

	pairs := Mine(facts, identity)
	assert.Empty(t, pairs)
}

func TestMine_Deterministic(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	facts := []models.ParticipationFact{
		fact("conv1", "d", base),
		fact("conv1", "b", base),
		fact("conv1", "c", base),
		fact("conv1", "a", base),
		fact("conv2", "a", base.Add(time.Hour)),
		fact("conv2", "c", base.Add(time.Hour)),
	}

	first := Mine(facts, identity)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Mine(facts, identity))
	}
}
