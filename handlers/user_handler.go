package handlers

import (
	"net/http"

	"github.com/khelzone/arena-backend/services"
)

type UserHandler struct {
	historyService services.HistoryService
}

func NewUserHandler(hs services.HistoryService) *UserHandler {
	return &UserHandler{historyService: hs}
}

// TournamentHistoryHandler обрабатывает GET /users/{userID}/tournaments
func (h *UserHandler) TournamentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	history, err := h.historyService.UserTournaments(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MatchHistoryHandler обрабатывает GET /users/{userID}/matches
func (h *UserHandler) MatchHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.historyService.UserMatches(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
