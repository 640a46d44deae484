package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Baguette21/ECTrivia/pkg/common/request"
	"github.com/Baguette21/ECTrivia/pkg/common/response"
)

type SubmitAnswerRequest struct {
	PlayerID      int64 `json:"player_id"`
	QuestionID    int64 `json:"question_id"`
	SelectedIndex int   `json:"selected_index"`
	ElapsedMs     int   `json:"elapsed_ms"`
}

// SubmitAnswerHandler records one answer for the active question. The
// call blocks until the room's processor has scored it, so the caller
// gets the points (or the rejection) back synchronously.
func (hr *HandlerRepo) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req SubmitAnswerRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ElapsedMs < 0 {
		response.Err(w, http.StatusBadRequest, "elapsed_ms must not be negative")
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	sub, settled, err := rm.SubmitAnswer(r.Context(), req.PlayerID, req.QuestionID, req.SelectedIndex, req.ElapsedMs)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	hr.logger.Info("answer scored",
		"room_code", code, "player_id", req.PlayerID, "question_id", req.QuestionID,
		"correct", sub.Correct, "points", sub.Points, "settled", settled)
	response.JSON(w, http.StatusOK, sub, "answer accepted")
}
