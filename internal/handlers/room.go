package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/store"
	"github.com/Baguette21/ECTrivia/pkg/common/request"
	"github.com/Baguette21/ECTrivia/pkg/common/response"
)

const (
	defaultTimerSeconds = 15
	defaultMaxPlayers   = 8
)

type CreateRoomRequest struct {
	CategoryID   int64 `json:"category_id"`
	ThemeBased   bool  `json:"theme_based"`
	TimerSeconds int   `json:"timer_seconds"`
	MaxPlayers   int   `json:"max_players"`
}

func (hr *HandlerRepo) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TimerSeconds <= 0 {
		req.TimerSeconds = defaultTimerSeconds
	}
	if req.MaxPlayers <= 0 {
		req.MaxPlayers = defaultMaxPlayers
	}

	code, err := hr.newRoomCode(r.Context())
	if err != nil {
		hr.logger.Error("room code issuance failed", "error", err)
		response.Err(w, http.StatusInternalServerError, "could not issue a room code")
		return
	}

	rm, err := hr.registry.Create(game.NewRoom(code, req.CategoryID, req.ThemeBased, req.TimerSeconds, req.MaxPlayers))
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	row := &store.Room{
		Code:         code,
		CategoryID:   req.CategoryID,
		ThemeBased:   req.ThemeBased,
		TimerSeconds: req.TimerSeconds,
		MaxPlayers:   req.MaxPlayers,
		Status:       string(game.StatusWaiting),
	}
	if err := hr.st.CreateRoom(r.Context(), row); err != nil {
		hr.registry.Remove(code)
		hr.writeGameError(w, err)
		return
	}

	hr.logger.Info("room created", "room_code", code, "category_id", req.CategoryID, "theme_based", req.ThemeBased)
	snap, err := rm.Snapshot(r.Context())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, snap, "room created successfully")
}

type JoinRoomRequest struct {
	Nickname string `json:"nickname"`
}

func (hr *HandlerRepo) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req JoinRoomRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Nickname == "" {
		response.Err(w, http.StatusBadRequest, "nickname is required")
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	player, err := rm.Join(r.Context(), req.Nickname)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	hr.logger.Info("player joined", "room_code", code, "player_id", player.ID, "nickname", player.Nickname)
	response.JSON(w, http.StatusCreated, player, "joined room successfully")
}

func (hr *HandlerRepo) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	playerID, err := strconv.ParseInt(chi.URLParam(r, "playerId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid player id")
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	if err := rm.Leave(r.Context(), playerID); err != nil {
		hr.writeGameError(w, err)
		return
	}

	hr.logger.Info("player left", "room_code", code, "player_id", playerID)
	response.JSON(w, http.StatusOK, nil, "left room successfully")
}

type HostActionRequest struct {
	PlayerID int64 `json:"player_id"`
}

func (hr *HandlerRepo) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req HostActionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	if err := rm.StartGame(r.Context(), req.PlayerID); err != nil {
		hr.writeGameError(w, err)
		return
	}
	if err := hr.st.UpdateRoomStatus(r.Context(), code, string(game.StatusInProgress)); err != nil {
		hr.logger.Error("failed to mark room in progress", "room_code", code, "error", err)
	}

	hr.logger.Info("game started", "room_code", code)
	snap, err := rm.Snapshot(r.Context())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, snap, "game started")
}

func (hr *HandlerRepo) AdvanceQuestionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req HostActionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	gameOver, err := rm.Advance(r.Context(), req.PlayerID)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	snap, err := rm.Snapshot(r.Context())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	msg := "advanced to next question"
	if gameOver {
		msg = "game over"
	}
	response.JSON(w, http.StatusOK, snap, msg)
}

func (hr *HandlerRepo) EndGameHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req HostActionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}

	rm, err := hr.registry.Get(code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	if err := rm.EndGame(r.Context(), req.PlayerID); err != nil {
		hr.writeGameError(w, err)
		return
	}

	hr.logger.Info("game ended by host", "room_code", code, "player_id", req.PlayerID)
	response.JSON(w, http.StatusOK, nil, "game ended")
}

func (hr *HandlerRepo) GetRoomStateHandler(w http.ResponseWriter, r *http.Request) {
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
	response.JSON(w, http.StatusOK, snap, "")
}
