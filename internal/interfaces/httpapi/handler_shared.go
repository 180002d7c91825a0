package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gridplay/boxgame/internal/domain/box"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/gameevent"
	"github.com/gridplay/boxgame/internal/domain/offer"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/usecase"
)

type Handler struct {
	entryService  *usecase.EntryService
	gameService   *usecase.GameService
	replayService *usecase.ReplayService
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	entryService *usecase.EntryService,
	gameService *usecase.GameService,
	replayService *usecase.ReplayService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		entryService:  entryService,
		gameService:   gameService,
		replayService: replayService,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

type createEntryRequest struct {
	Position         string `json:"position" validate:"required,oneof=QB RB WR TE K DST"`
	Week             int    `json:"week" validate:"required,gt=0"`
	LeagueSettingsID string `json:"league_settings_id" validate:"required"`
	PoolSize         int    `json:"pool_size" validate:"omitempty,gt=0"`
}

type selectBoxRequest struct {
	BoxNumber int `json:"box_number" validate:"required,gt=0"`
}

type verifyEntriesRequest struct {
	EntryIDs []string `json:"entry_ids" validate:"required,min=1,max=500,dive,required"`
}

type entryDTO struct {
	ID               string `json:"id"`
	TeamID           string `json:"teamId"`
	Position         string `json:"position"`
	Week             int    `json:"week"`
	LeagueSettingsID string `json:"leagueSettingsId"`
	PoolSize         int    `json:"poolSize"`
	ResetCount       int    `json:"resetCount"`
	SelectedBox      *int   `json:"selectedBox,omitempty"`
	Round            int    `json:"round"`
	Status           string `json:"status"`
	FinalPlayerID    string `json:"finalPlayerId,omitempty"`
	Version          int    `json:"version"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type boxPlayerDTO struct {
	PlayerID        string  `json:"playerId"`
	PlayerName      string  `json:"playerName"`
	ProjectedPoints float64 `json:"projectedPoints"`
	InjuryStatus    string  `json:"injuryStatus,omitempty"`
}

type boxDTO struct {
	BoxNumber int           `json:"boxNumber"`
	BoxStatus string        `json:"boxStatus"`
	Player    *boxPlayerDTO `json:"player,omitempty"`
}

type offerDTO struct {
	ID              string  `json:"id"`
	Round           int     `json:"round"`
	Value           float64 `json:"value"`
	PlayerID        string  `json:"playerId"`
	PlayerName      string  `json:"playerName"`
	ProjectedPoints float64 `json:"projectedPoints"`
	InjuryStatus    string  `json:"injuryStatus,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
}

type entryStateDTO struct {
	Entry        entryDTO      `json:"entry"`
	Boxes        []boxDTO      `json:"boxes"`
	PendingOffer *offerDTO     `json:"pendingOffer,omitempty"`
	FinalPlayer  *boxPlayerDTO `json:"finalPlayer,omitempty"`
}

type eventDTO struct {
	Seq         int64             `json:"seq"`
	Type        string            `json:"type"`
	ResetNumber int               `json:"resetNumber"`
	Round       *int              `json:"round,omitempty"`
	Payload     gameevent.Payload `json:"payload"`
	CreatedAt   string            `json:"createdAt"`
}

func entryToDTO(ctx context.Context, v entry.TeamEntry) entryDTO {
	ctx, span := startSpan(ctx, "httpapi.entryToDTO")
	defer span.End()

	dto := entryDTO{
		ID:               v.ID,
		TeamID:           v.TeamID,
		Position:         string(v.Position),
		Week:             v.Week,
		LeagueSettingsID: v.LeagueSettingsID,
		PoolSize:         v.PoolSize,
		ResetCount:       v.ResetCount,
		Round:            v.Round,
		Status:           string(v.Status),
		FinalPlayerID:    v.FinalPlayerID,
		Version:          v.Version,
		CreatedAt:        v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.SelectedBox != nil {
		n := *v.SelectedBox
		dto.SelectedBox = &n
	}
	return dto
}

// boxToDTO conceals the boxed player unless the box has been revealed.
// Eliminated and swapped boxes are open by definition; the selected box is
// only revealed once the entry is finished.
func boxToDTO(ctx context.Context, v box.Audit, finished bool) boxDTO {
	ctx, span := startSpan(ctx, "httpapi.boxToDTO")
	defer span.End()

	dto := boxDTO{
		BoxNumber: v.BoxNumber,
		BoxStatus: string(v.Status),
	}

	revealed := v.Status == box.StatusEliminated ||
		v.Status == box.StatusSwapped ||
		(finished && v.Status == box.StatusSelected)
	if revealed {
		dto.Player = &boxPlayerDTO{
			PlayerID:        v.PlayerID,
			PlayerName:      v.PlayerName,
			ProjectedPoints: v.ProjectedPoints,
			InjuryStatus:    v.InjuryStatus,
		}
	}

	return dto
}

func offerToDTO(ctx context.Context, v offer.Offer) offerDTO {
	ctx, span := startSpan(ctx, "httpapi.offerToDTO")
	defer span.End()

	return offerDTO{
		ID:              v.ID,
		Round:           v.Round,
		Value:           v.Value,
		PlayerID:        v.PlayerID,
		PlayerName:      v.PlayerName,
		ProjectedPoints: v.ProjectedPoints,
		InjuryStatus:    v.InjuryStatus,
		Status:          string(v.Status),
		CreatedAt:       v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func entryStateToDTO(ctx context.Context, state usecase.EntryState) entryStateDTO {
	ctx, span := startSpan(ctx, "httpapi.entryStateToDTO")
	defer span.End()

	finished := state.Entry.Status == entry.StatusFinished

	boxes := make([]boxDTO, 0, len(state.Boxes))
	for _, item := range state.Boxes {
		boxes = append(boxes, boxToDTO(ctx, item, finished))
	}

	dto := entryStateDTO{
		Entry: entryToDTO(ctx, state.Entry),
		Boxes: boxes,
	}
	if state.PendingOffer != nil {
		offered := offerToDTO(ctx, *state.PendingOffer)
		dto.PendingOffer = &offered
	}
	if state.FinalPlayer != nil {
		dto.FinalPlayer = &boxPlayerDTO{
			PlayerID:        state.FinalPlayer.PlayerID,
			PlayerName:      state.FinalPlayer.PlayerName,
			ProjectedPoints: state.FinalPlayer.ProjectedPoints,
			InjuryStatus:    state.FinalPlayer.InjuryStatus,
		}
	}

	return dto
}

func eventToDTO(ctx context.Context, v gameevent.Event) eventDTO {
	ctx, span := startSpan(ctx, "httpapi.eventToDTO")
	defer span.End()

	return eventDTO{
		Seq:         v.Seq,
		Type:        string(v.Type),
		ResetNumber: v.ResetNumber,
		Round:       v.Round,
		Payload:     v.Payload,
		CreatedAt:   v.CreatedAt.UTC().Format(time.RFC3339),
	}
}
