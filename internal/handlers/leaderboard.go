package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Baguette21/ECTrivia/pkg/common/response"
)

// GetLeaderboardHandler returns the ranked standings of a room. Safe in
// any game state; the snapshot is an immutable copy, never the live
// room.
func (hr *HandlerRepo) GetLeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	snap, err := rm.Snapshot(r.Context())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snap.Leaderboard, "")
}
