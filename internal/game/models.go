package game

import "time"

type Status string

const (
	StatusWaiting         Status = "WAITING"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusQuestionSettled Status = "QUESTION_SETTLED"
	StatusEnded           Status = "ENDED"
)

type Player struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	Streak    int       `json:"streak"`
	JoinedAt  time.Time `json:"joined_at"`
	Connected bool      `json:"connected"`
}

type Question struct {
	ID           int64    `json:"id"`
	Position     int      `json:"position"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correct_index"`
	// TimerSeconds overrides the room default when > 0.
	TimerSeconds int `json:"timer_seconds"`
}

// QuestionView is the outbound shape of an in-flight question. The
// correct answer stays server-side until scoring; players only ever see
// the text and the options.
type QuestionView struct {
	ID           int64    `json:"id"`
	Position     int      `json:"position"`
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	TimerSeconds int      `json:"timer_seconds"`
}

// View redacts the question for players, with its own copy of the
// answer slice.
func (q *Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		Position:     q.Position,
		Text:         q.Text,
		Answers:      append([]string(nil), q.Answers...),
		TimerSeconds: q.TimerSeconds,
	}
}

// Submission is an accepted answer for one (player, question) pair.
// Later submissions for the same pair are rejected, never overwritten.
type Submission struct {
	PlayerID      int64 `json:"player_id"`
	QuestionID    int64 `json:"question_id"`
	SelectedIndex int   `json:"selected_index"`
	ElapsedMs     int   `json:"elapsed_ms"`
	Correct       bool  `json:"correct"`
	Points        int   `json:"points"`
}

// LeaderboardEntry is one row of a ranked snapshot. Rank is 1-based and
// shared between ties (1,2,2,4).
type LeaderboardEntry struct {
	PlayerID int64  `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Snapshot is an immutable point-in-time copy of a room, safe to hand
// out to readers while the room keeps mutating.
type Snapshot struct {
	Code            string             `json:"code"`
	CategoryID      int64              `json:"category_id"`
	ThemeBased      bool               `json:"theme_based"`
	Status          Status             `json:"status"`
	TimerSeconds    int                `json:"timer_seconds"`
	MaxPlayers      int                `json:"max_players"`
	HostID          int64              `json:"host_id"`
	Players         []Player           `json:"players"`
	QuestionIndex   int                `json:"question_index"`
	QuestionCount   int                `json:"question_count"`
	CurrentQuestion *QuestionView      `json:"current_question,omitempty"`
	QuestionStarted time.Time          `json:"question_started,omitempty"`
	AnsweredCount   int                `json:"answered_count"`
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
}
