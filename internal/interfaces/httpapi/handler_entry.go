package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridplay/boxgame/internal/usecase"
)

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateEntry")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))

	var req createEntryRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.entryService.CreateEntry(ctx, usecase.CreateEntryInput{
		TeamID:           teamID,
		Position:         req.Position,
		Week:             req.Week,
		LeagueSettingsID: req.LeagueSettingsID,
		PoolSize:         req.PoolSize,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create entry failed", "team_id", teamID, "position", req.Position, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, entryStateToDTO(ctx, state))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetEntry")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.entryService.GetEntry(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "get entry failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}

func (h *Handler) ResetEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResetEntry")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.entryService.ResetEntry(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "reset entry failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}
