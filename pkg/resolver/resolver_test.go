package resolver

import (
	"testing"
	"time"

	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/stretchr/testify/assert"
)

func contact(id, name string, created time.Time) models.Contact {
	return models.Contact{ID: id, DisplayName: name, CreatedAt: created}
}

func TestResolver_DuplicateGrouping(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("most facts wins", func(t *testing.T) {
		contacts := []models.Contact{
			contact("bob1", "Bob Smith", base),
			contact("bob2", "Bob Smith", base.Add(time.Hour)),
		}
		r := Build(contacts, map[string]int{"bob1": 10, "bob2": 3})

		assert.Equal(t, "bob1", r.Resolve("bob1"))
		assert.Equal(t, "bob1", r.Resolve("bob2"))
	})

	t.Run("earliest created breaks fact tie", func(t *testing.T) {
		contacts := []models.Contact{
			contact("late", "Jane Doe", base.Add(time.Hour)),
			contact("early", "Jane Doe", base),
		}
		r := Build(contacts, map[string]int{"late": 5, "early": 5})

		assert.Equal(t, "early", r.Resolve("late"))
		assert.Equal(t, "early", r.Resolve("early"))
	})

	t.Run("smallest id breaks full tie", func(t *testing.T) {
		contacts := []models.Contact{
			contact("b", "Sam Park", base),
			contact("a", "Sam Park", base),
		}
		r := Build(contacts, map[string]int{})

		assert.Equal(t, "a", r.Resolve("b"))
	})
}

func TestResolver_NameNormalization(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	contacts := []models.Contact{
		contact("c1", "Bob Smith", base),
		contact("c2", "  bob   SMITH ", base.Add(time.Minute)),
	}
	r := Build(contacts, map[string]int{"c1": 2, "c2": 1})

	assert.Equal(t, "c1", r.Resolve("c2"))
}

func TestResolver_DistinctNamesStaySeparate(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	contacts := []models.Contact{
		contact("c1", "Bob Smith", base),
		contact("c2", "Bob Smithe", base),
	}
	r := Build(contacts, map[string]int{})

	assert.Equal(t, "c1", r.Resolve("c1"))
	assert.Equal(t, "c2", r.Resolve("c2"))
}

func TestResolver_UnknownIDResolvesToItself(t *testing.T) {
	r := Build(nil, nil)
	assert.Equal(t, "ghost", r.Resolve("ghost"))
}

func TestResolver_EmptyNamesNeverGroup(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	contacts := []models.Contact{
		contact("c1", "", base),
		contact("c2", "   ", base),
	}
	r := Build(contacts, map[string]int{"c1": 9})

	assert.Equal(t, "c1", r.Resolve("c1"))
	assert.Equal(t, "c2", r.Resolve("c2"))
}

func TestResolver_Deterministic(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	contacts := []models.Contact{
		contact("x3", "Ada Lovelace", base),
		contact("x1", "Ada Lovelace", base),
		contact("x2", "Ada Lovelace", base),
	}
	counts := map[string]int{"x1": 4, "x2": 4, "x3": 4}

	first := Build(contacts, counts)
	for i := 0; i < 20; i++ {
		// Shuffle-equivalent: rebuild with the same input repeatedly, map
		// iteration order must never change the winner.
		r := Build(contacts, counts)
		assert.Equal(t, first.Resolve("x1"), r.Resolve("x1"))
		assert.Equal(t, first.Resolve("x2"), r.Resolve("x2"))
		assert.Equal(t, first.Resolve("x3"), r.Resolve("x3"))
	}
	assert.Equal(t, "x1", first.Resolve("x3"))
}
