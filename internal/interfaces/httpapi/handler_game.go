package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridplay/boxgame/internal/usecase"
)

func (h *Handler) SelectBox(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectBox")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	var req selectBoxRequest
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

	state, err := h.gameService.SelectBox(ctx, entryID, req.BoxNumber)
	if err != nil {
		h.logger.WarnContext(ctx, "select box failed", "entry_id", entryID, "box_number", req.BoxNumber, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptOffer")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.gameService.AcceptOffer(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept offer failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}

func (h *Handler) DeclineOffer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclineOffer")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.gameService.DeclineOffer(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "decline offer failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}

func (h *Handler) KeepBox(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.KeepBox")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.gameService.Keep(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "keep box failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}

func (h *Handler) SwapBox(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SwapBox")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	state, err := h.gameService.Swap(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "swap box failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entryStateToDTO(ctx, state))
}
