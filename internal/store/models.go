package store

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Category struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Active      bool               `json:"active"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

// Room is the persisted row for a room; the live game state lives in
// memory with the room's manager, this is only what survives a restart.
type Room struct {
	Code         string             `json:"code"`
	CategoryID   int64              `json:"category_id"`
	ThemeBased   bool               `json:"theme_based"`
	TimerSeconds int                `json:"timer_seconds"`
	MaxPlayers   int                `json:"max_players"`
	Status       string             `json:"status"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

// QuestionInput is the write-side shape for question CRUD. A question
// belongs either to a category or directly to a room (custom
// questions).
type QuestionInput struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correct_index"`
	TimerSeconds int      `json:"timer_seconds"`
}

// FinalResult is one leaderboard row persisted when a game ends.
type FinalResult struct {
	RoomCode string `json:"room_code"`
	PlayerID int64  `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}
