package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
)

func testEntry(id, teamID string) entry.TeamEntry {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	return entry.TeamEntry{
		ID:               id,
		TeamID:           teamID,
		Position:         entry.PositionQuarterback,
		Week:             5,
		LeagueSettingsID: "ls-standard",
		PoolSize:         10,
		Round:            entry.RoundUnselected,
		Status:           entry.StatusPlaying,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func testGeneration(teamEntryID string, resetNumber, n int) []box.Audit {
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)
	items := make([]box.Audit, 0, n)
	for i := 1; i <= n; i++ {
		items = append(items, box.Audit{
			TeamEntryID:     teamEntryID,
			ResetNumber:     resetNumber,
			BoxNumber:       i,
			PlayerID:        "p" + string(rune('0'+i)),
			PlayerName:      "Player",
			ProjectedPoints: float64(10 + i),
			Status:          box.StatusAvailable,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return items
}

func TestEntryRepository(t *testing.T) {
	store := NewStore()
	repo := store.Reader().Entries()

	require.NoError(t, repo.Create(t.Context(), testEntry("ent_1", "team-1")))

	got, exists, err := repo.GetByID(t.Context(), "ent_1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "team-1", got.TeamID)

	_, exists, err = repo.GetByID(t.Context(), "ent_missing")
	require.NoError(t, err)
	require.False(t, exists)

	active, exists, err := repo.GetActiveByTeamPosition(t.Context(), "team-1", entry.PositionQuarterback)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "ent_1", active.ID)

	require.Error(t, repo.Create(t.Context(), testEntry("ent_2", "team-1")), "second active QB entry must be rejected")

	got.Status = entry.StatusFinished
	require.NoError(t, repo.Update(t.Context(), got))

	updated, _, err := repo.GetByID(t.Context(), "ent_1")
	require.NoError(t, err)
	require.Equal(t, entry.StatusFinished, updated.Status)
	require.Equal(t, got.Version+1, updated.Version)

	// A writer holding the old version must not clobber the new row.
	require.Error(t, repo.Update(t.Context(), got))

	_, exists, err = repo.GetActiveByTeamPosition(t.Context(), "team-1", entry.PositionQuarterback)
	require.NoError(t, err)
	require.False(t, exists, "finished entries are not active")
}

func TestBoxRepository(t *testing.T) {
	store := NewStore()
	repo := store.Reader().Boxes()

	require.NoError(t, repo.InsertGeneration(t.Context(), testGeneration("ent_1", 0, 4)))
	require.Error(t, repo.InsertGeneration(t.Context(), testGeneration("ent_1", 0, 4)), "a generation can only be inserted once")

	items, err := repo.ListGeneration(t.Context(), "ent_1", 0)
	require.NoError(t, err)
	require.Len(t, items, 4)

	got, exists, err := repo.GetBox(t.Context(), "ent_1", 0, 2)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, box.StatusAvailable, got.Status)

	require.NoError(t, repo.UpdateStatus(t.Context(), "ent_1", 0, 2, box.StatusAvailable, box.StatusSelected))
	require.Error(t, repo.UpdateStatus(t.Context(), "ent_1", 0, 2, box.StatusAvailable, box.StatusEliminated), "stale from-status must be rejected")
	require.Error(t, repo.UpdateStatus(t.Context(), "ent_1", 0, 3, box.StatusAvailable, box.StatusSwapped), "available cannot jump to swapped")
	require.Error(t, repo.UpdateStatus(t.Context(), "ent_1", 0, 99, box.StatusAvailable, box.StatusEliminated))
}

func TestOfferRepository(t *testing.T) {
	store := NewStore()
	repo := store.Reader().Offers()
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	first := offer.Offer{
		ID:              "off_1",
		TeamEntryID:     "ent_1",
		Round:           1,
		Value:           20.5,
		PlayerID:        "p1",
		PlayerName:      "Player One",
		ProjectedPoints: 20.1,
		Status:          offer.StatusPending,
		CreatedAt:       now,
	}
	require.NoError(t, repo.Create(t.Context(), first))

	second := first
	second.ID = "off_2"
	second.PlayerID = "p2"
	require.Error(t, repo.Create(t.Context(), second), "one pending offer per entry")

	pending, exists, err := repo.GetPending(t.Context(), "ent_1")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, "off_1", pending.ID)

	require.Error(t, repo.Resolve(t.Context(), "off_1", offer.StatusPending, now), "resolution must be terminal")
	require.NoError(t, repo.Resolve(t.Context(), "off_1", offer.StatusRejected, now))
	require.Error(t, repo.Resolve(t.Context(), "off_1", offer.StatusAccepted, now), "an offer resolves once")

	_, exists, err = repo.GetPending(t.Context(), "ent_1")
	require.NoError(t, err)
	require.False(t, exists)

	second.Round = 2
	second.CreatedAt = now.Add(time.Minute)
	require.NoError(t, repo.Create(t.Context(), second))

	playerIDs, err := repo.ListOfferedPlayerIDs(t.Context(), "ent_1", 0)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, playerIDs)
}

func TestEventRepository(t *testing.T) {
	store := NewStore()
	repo := store.Reader().Events()
	now := time.Date(2026, 9, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Append(t.Context(), gameevent.Event{
			TeamEntryID: "ent_1",
			Type:        gameevent.TypeStart,
			Payload:     gameevent.StartPayload("QB", 5),
			CreatedAt:   now,
		}))
	}

	events, err := repo.ListByEntry(t.Context(), "ent_1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		require.Equal(t, int64(i+1), ev.Seq, "sequence numbers are dense and start at 1")
	}

	require.Error(t, repo.Append(t.Context(), gameevent.Event{Type: gameevent.TypeStart}), "events need an entry id")
}
