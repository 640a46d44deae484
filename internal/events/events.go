package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/Baguette21/ECTrivia/internal/game"
)

type EventType string

const (
	ROOM_STATE_CHANGED  EventType = "ROOM_STATE_CHANGED"
	PLAYER_JOINED       EventType = "PLAYER_JOINED"
	PLAYER_LEFT         EventType = "PLAYER_LEFT"
	GAME_STARTED        EventType = "GAME_STARTED"
	QUESTION_ADVANCED   EventType = "QUESTION_ADVANCED"
	ANSWER_SCORED       EventType = "ANSWER_SCORED"
	QUESTION_SETTLED    EventType = "QUESTION_SETTLED"
	LEADERBOARD_UPDATED EventType = "LEADERBOARD_UPDATED"
	GAME_ENDED          EventType = "GAME_ENDED"
)

// Envelope wraps every published event. Exactly one envelope is emitted
// per successful room mutation; delivery past the outbox is not
// guaranteed by the game core.
type Envelope struct {
	EventID    string    `json:"event_id"`
	RoomCode   string    `json:"room_code"`
	EventType  EventType `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func NewEnvelope(roomCode string, t EventType, payload any) Envelope {
	return Envelope{
		EventID:    uuid.NewString(),
		RoomCode:   roomCode,
		EventType:  t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// SseEvent is the wrapper handed to per-room SSE listeners.
type SseEvent struct {
	EventType EventType `json:"event_type"`
	Data      any       `json:"data"`
}

type RoomStateChanged struct {
	RoomCode string      `json:"room_code"`
	Status   game.Status `json:"status"`
}

type PlayerJoined struct {
	RoomCode string      `json:"room_code"`
	Player   game.Player `json:"player"`
}

type PlayerLeft struct {
	RoomCode  string `json:"room_code"`
	PlayerID  int64  `json:"player_id"`
	NewHostID int64  `json:"new_host_id,omitempty"`
}

type GameStarted struct {
	RoomCode      string `json:"room_code"`
	QuestionCount int    `json:"question_count"`
}

// QuestionAdvanced carries the redacted view: the event fans out to
// every player, so the correct index must not ride along.
type QuestionAdvanced struct {
	RoomCode      string            `json:"room_code"`
	QuestionIndex int               `json:"question_index"`
	Question      game.QuestionView `json:"question"`
}

type AnswerScored struct {
	RoomCode     string `json:"room_code"`
	PlayerID     int64  `json:"player_id"`
	QuestionID   int64  `json:"question_id"`
	Correct      bool   `json:"correct"`
	PointsEarned int    `json:"points_earned"`
	TotalScore   int    `json:"total_score"`
	Streak       int    `json:"streak"`
}

type QuestionSettled struct {
	RoomCode   string `json:"room_code"`
	QuestionID int64  `json:"question_id"`
}

type LeaderboardUpdated struct {
	RoomCode    string                  `json:"room_code"`
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
}

type GameEnded struct {
	RoomCode    string                  `json:"room_code"`
	Leaderboard []game.LeaderboardEntry `json:"leaderboard"`
}
