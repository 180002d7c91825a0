package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/gridplay/boxgame/internal/usecase"
)

// ListEntryEvents returns the raw audit log for one entry. The log contains
// concealed player assignments, so the route is internal-token only.
func (h *Handler) ListEntryEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEntryEvents")
	defer span.End()

	entryID := strings.TrimSpace(r.PathValue("entryID"))

	events, err := h.replayService.Events(ctx, entryID)
	if err != nil {
		h.logger.WarnContext(ctx, "list entry events failed", "entry_id", entryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]eventDTO, 0, len(events))
	for _, event := range events {
		items = append(items, eventToDTO(ctx, event))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) VerifyEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyEntries")
	defer span.End()

	var req verifyEntriesRequest
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

	results, err := h.replayService.Verify(ctx, req.EntryIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "verify entries failed", "entry_count", len(req.EntryIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, results)
}
