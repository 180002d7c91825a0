package httpapi

import (
	"context"
	"testing"

	"github.com/gridplay/boxgame/internal/domain/box"
)

func TestBoxToDTO_Concealment(t *testing.T) {
	audit := box.Audit{
		TeamEntryID:     "ent_1",
		BoxNumber:       3,
		PlayerID:        "p1",
		PlayerName:      "Player One",
		ProjectedPoints: 18.4,
	}

	cases := []struct {
		name     string
		status   box.Status
		finished bool
		revealed bool
	}{
		{"available stays concealed", box.StatusAvailable, false, false},
		{"available concealed even when finished", box.StatusAvailable, true, false},
		{"reset stays concealed", box.StatusReset, false, false},
		{"eliminated is revealed", box.StatusEliminated, false, true},
		{"swapped is revealed", box.StatusSwapped, false, true},
		{"selected concealed while playing", box.StatusSelected, false, false},
		{"selected revealed once finished", box.StatusSelected, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit.Status = tc.status
			dto := boxToDTO(context.Background(), audit, tc.finished)

			if dto.BoxNumber != 3 || dto.BoxStatus != string(tc.status) {
				t.Fatalf("unexpected box dto: %+v", dto)
			}
			if tc.revealed {
				if dto.Player == nil || dto.Player.PlayerID != "p1" {
					t.Fatalf("expected revealed player, got %+v", dto.Player)
				}
				return
			}
			if dto.Player != nil {
				t.Fatalf("expected concealed player, got %+v", dto.Player)
			}
		})
	}
}
