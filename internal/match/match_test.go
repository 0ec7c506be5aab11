package match

import (
	"testing"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(id string, pickup, drop, date, tm string, passengers int) extraction.Record {
	return extraction.Record{
		ID:   id,
		Kind: extraction.KindRequest,
		Details: extraction.RideDetails{
			PickupLocation: pickup,
			DropLocation:   drop,
			Date:           date,
			Time:           tm,
			Passengers:     &passengers,
		},
		Complete: true,
	}
}

func offer(id string, pickup, drop, date, tm string, seats int, route ...string) extraction.Record {
	return extraction.Record{
		ID:   id,
		Kind: extraction.KindOffer,
		Details: extraction.RideDetails{
			PickupLocation: pickup,
			DropLocation:   drop,
			Route:          route,
			Date:           date,
			Time:           tm,
			AvailableSeats: &seats,
		},
		Complete: true,
	}
}

func TestFindMatches_Exact(t *testing.T) {
	m := New(metrics.NewTesting())

	matches := m.FindMatches([]extraction.Record{
		request("req", "Uptown", "Downtown", "tomorrow", "9am", 2),
		offer("off", "uptown", "downtown", "tomorrow", "9am", 3),
	})

	require.Len(t, matches, 1)
	assert.Equal(t, "req", matches[0].RequestID)
	assert.Equal(t, "off", matches[0].OfferID)
	assert.Equal(t, TypeExact, matches[0].Type)
	assert.Equal(t, 1.0, matches[0].LocationScore)
	assert.Equal(t, 1.0, matches[0].TimeScore)
	assert.Equal(t, 1.0, matches[0].Score)
	assert.Equal(t, 3, matches[0].RemainingSeats)
}

func TestFindMatches_DateMustAlign(t *testing.T) {
	m := New(nil)

	matches := m.FindMatches([]extraction.Record{
		request("req", "uptown", "downtown", "today", "9am", 1),
		offer("off", "uptown", "downtown", "tomorrow", "9am", 3),
	})
	assert.Empty(t, matches)
}

func TestFindMatches_SeatShortage(t *testing.T) {
	m := New(nil)

	matches := m.FindMatches([]extraction.Record{
		request("req", "uptown", "downtown", "today", "9am", 4),
		offer("off", "uptown", "downtown", "today", "9am", 2),
	})
	assert.Empty(t, matches)
}

func TestFindMatches_IncompleteRecordsIgnored(t *testing.T) {
	m := New(nil)

	incomplete := request("req", "uptown", "downtown", "today", "9am", 1)
	incomplete.Complete = false

	matches := m.FindMatches([]extraction.Record{
		incomplete,
		offer("off", "uptown", "downtown", "today", "9am", 2),
	})
	assert.Empty(t, matches)
}

func TestFindMatches_Routes(t *testing.T) {
	m := New(nil)

	t.Run("full route span", func(t *testing.T) {
		matches := m.FindMatches([]extraction.Record{
			request("req", "uptown", "harbor", "today", "9am", 1),
			offer("off", "", "", "today", "9am", 2, "uptown", "midtown", "harbor"),
		})
		require.Len(t, matches, 1)
		assert.Equal(t, TypeExactRoute, matches[0].Type)
		assert.Equal(t, 1.0, matches[0].LocationScore)
	})

	t.Run("partial span", func(t *testing.T) {
		matches := m.FindMatches([]extraction.Record{
			request("req", "midtown", "harbor", "today", "9am", 1),
			offer("off", "", "", "today", "9am", 2, "uptown", "midtown", "harbor"),
		})
		require.Len(t, matches, 1)
		assert.Equal(t, TypePartialRoute, matches[0].Type)
		assert.InDelta(t, 0.85, matches[0].LocationScore, 0.001)
	})

	t.Run("direction matters", func(t *testing.T) {
		matches := m.FindMatches([]extraction.Record{
			request("req", "harbor", "uptown", "today", "9am", 1),
			offer("off", "", "", "today", "9am", 2, "uptown", "midtown", "harbor"),
		})
		assert.Empty(t, matches)
	})

	t.Run("loose stop names", func(t *testing.T) {
		matches := m.FindMatches([]extraction.Record{
			request("req", "uptown", "harbor", "today", "9am", 1),
			offer("off", "", "", "today", "9am", 2, "uptown plaza", "harbor terminal"),
		})
		require.Len(t, matches, 1)
		assert.Equal(t, TypeExactRoute, matches[0].Type)
	})
}

func TestFindMatches_SortedByScore(t *testing.T) {
	m := New(metrics.NewTesting())

	matches := m.FindMatches([]extraction.Record{
		request("req", "uptown", "downtown", "today", "9am", 1),
		offer("off-evening", "uptown", "downtown", "today", "evening", 3),
		offer("off-exact", "uptown", "downtown", "today", "9am", 3),
		offer("off-morning", "uptown", "downtown", "today", "morning", 3),
	})

	require.Len(t, matches, 3)
	assert.Equal(t, "off-exact", matches[0].OfferID)
	assert.Equal(t, "off-morning", matches[1].OfferID)
	assert.Equal(t, "off-evening", matches[2].OfferID)
	assert.True(t, matches[0].Score >= matches[1].Score)
	assert.True(t, matches[1].Score >= matches[2].Score)
}

func TestTimeCompatibility(t *testing.T) {
	assert.Equal(t, 1.0, timeCompatibility("9am", "9am"))
	assert.Equal(t, 1.0, timeCompatibility(" 9AM ", "9am"))
	assert.Equal(t, 0.8, timeCompatibility("9am", "morning"))
	assert.Equal(t, 0.8, timeCompatibility("5pm", "evening"))
	assert.Equal(t, 0.6, timeCompatibility("9am", "5pm"))
}

func TestNormalizeLocation(t *testing.T) {
	assert.Equal(t, "new town plaza", NormalizeLocation("  New   Town  Plaza "))
	assert.Equal(t, "downtown", NormalizeLocation("Downtown"))
}
