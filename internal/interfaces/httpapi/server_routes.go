package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/teams/{teamID}/entries", handler.CreateEntry)
	mux.HandleFunc("GET /v1/entries/{entryID}", handler.GetEntry)
	mux.HandleFunc("POST /v1/entries/{entryID}/reset", handler.ResetEntry)
	mux.HandleFunc("POST /v1/entries/{entryID}/select", handler.SelectBox)
	mux.HandleFunc("POST /v1/entries/{entryID}/offer/accept", handler.AcceptOffer)
	mux.HandleFunc("POST /v1/entries/{entryID}/offer/decline", handler.DeclineOffer)
	mux.HandleFunc("POST /v1/entries/{entryID}/keep", handler.KeepBox)
	mux.HandleFunc("POST /v1/entries/{entryID}/swap", handler.SwapBox)
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("GET /v1/internal/entries/{entryID}/events", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListEntryEvents)))
	mux.Handle("POST /v1/internal/verify", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.VerifyEntries)))
}
