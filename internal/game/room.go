package game

import (
	"strings"
	"time"
)

// Room is the full mutable state of one live trivia session. It is not
// safe for concurrent use on its own: every room is owned by a single
// RoomManager goroutine (internal/channels) and all mutations go
// through it. Methods take the current time as a parameter so the state
// machine stays deterministic under test.
type Room struct {
	Code         string
	CategoryID   int64
	ThemeBased   bool
	TimerSeconds int
	MaxPlayers   int

	status        Status
	hostID        int64
	players       map[int64]*Player
	seq           *Sequencer
	ledgers       map[int64]*Ledger
	questionStart time.Time
	nextPlayerID  int64
}

func NewRoom(code string, categoryID int64, themeBased bool, timerSeconds, maxPlayers int) *Room {
	return &Room{
		Code:         code,
		CategoryID:   categoryID,
		ThemeBased:   themeBased,
		TimerSeconds: timerSeconds,
		MaxPlayers:   maxPlayers,
		status:       StatusWaiting,
		players:      make(map[int64]*Player),
		ledgers:      make(map[int64]*Ledger),
	}
}

func (r *Room) Status() Status {
	return r.status
}

func (r *Room) HostID() int64 {
	return r.hostID
}

func (r *Room) Player(id int64) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

// Join adds a player in the WAITING state. The first joiner becomes
// host. Nicknames are unique per room, case-insensitively.
func (r *Room) Join(nickname string, now time.Time) (*Player, error) {
	if r.status != StatusWaiting {
		return nil, ErrInvalidTransition
	}
	if len(r.players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}
	for _, p := range r.players {
		if strings.EqualFold(p.Nickname, nickname) {
			return nil, ErrDuplicateNickname
		}
	}

	r.nextPlayerID++
	player := &Player{
		ID:        r.nextPlayerID,
		Nickname:  nickname,
		JoinedAt:  now,
		Connected: true,
	}
	r.players[player.ID] = player
	if len(r.players) == 1 {
		r.hostID = player.ID
	}
	return player, nil
}

// Leave removes a player. The host role migrates to the longest-tenured
// remaining player; an emptied room ends. Reports whether the host
// changed and whether the room ended. Past ledger entries of the
// leaving player are kept.
func (r *Room) Leave(playerID int64) (hostChanged, ended bool, err error) {
	if r.status == StatusEnded {
		return false, false, ErrInvalidTransition
	}
	if _, ok := r.players[playerID]; !ok {
		return false, false, ErrUnknownPlayer
	}
	delete(r.players, playerID)

	if len(r.players) == 0 {
		r.hostID = 0
		r.status = StatusEnded
		return false, true, nil
	}

	if r.hostID == playerID {
		r.hostID = r.electHost()
		hostChanged = true
	}

	// The departed player no longer counts towards settlement.
	if r.status == StatusInProgress && r.allCurrentAnswered() {
		r.settleCurrent()
	}
	return hostChanged, false, nil
}

func (r *Room) electHost() int64 {
	var best *Player
	for _, p := range r.players {
		if best == nil ||
			p.JoinedAt.Before(best.JoinedAt) ||
			(p.JoinedAt.Equal(best.JoinedAt) && p.ID < best.ID) {
			best = p
		}
	}
	return best.ID
}

// StartGame transitions WAITING -> IN_PROGRESS and activates the first
// question. The question list is loaded by the caller (durable store)
// and frozen here for the rest of the game.
func (r *Room) StartGame(requesterID int64, questions []Question, now time.Time) error {
	if r.status != StatusWaiting {
		return ErrInvalidTransition
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if len(r.players) < 1 {
		return ErrInsufficientPlayers
	}
	if len(questions) == 0 {
		return ErrInvalidTransition
	}

	r.seq = NewSequencer(questions)
	r.seq.Activate()
	r.activateCurrent(now)
	r.status = StatusInProgress
	return nil
}

func (r *Room) activateCurrent(now time.Time) {
	q := r.seq.Current()
	r.questionStart = now
	if _, ok := r.ledgers[q.ID]; !ok {
		r.ledgers[q.ID] = NewLedger()
	}
}

// SubmitAnswer records one answer for the active question, scores it
// and updates the player's total and streak. The first submission per
// (player, question) wins; anything later is rejected untouched. When
// the last player answers, the question settles. Reports whether this
// submission settled the question.
func (r *Room) SubmitAnswer(playerID, questionID int64, selectedIndex, elapsedMs int) (*Submission, bool, error) {
	if r.status != StatusInProgress {
		return nil, false, ErrInvalidTransition
	}
	q := r.seq.Current()
	if q == nil || q.ID != questionID {
		return nil, false, ErrStaleQuestion
	}
	player, ok := r.players[playerID]
	if !ok {
		return nil, false, ErrUnknownPlayer
	}
	ledger := r.ledgers[q.ID]
	if ledger.Contains(playerID) {
		return nil, false, ErrDuplicateSubmission
	}

	correct := selectedIndex == q.CorrectIndex
	points := Score(correct, elapsedMs, r.activeTimerSeconds(), player.Streak)
	sub := &Submission{
		PlayerID:      playerID,
		QuestionID:    questionID,
		SelectedIndex: selectedIndex,
		ElapsedMs:     elapsedMs,
		Correct:       correct,
		Points:        points,
	}
	ledger.Append(sub)

	player.Score += points
	if correct {
		player.Streak++
	} else {
		player.Streak = 0
	}

	if r.allCurrentAnswered() {
		r.settleCurrent()
		return sub, true, nil
	}
	return sub, false, nil
}

func (r *Room) allCurrentAnswered() bool {
	q := r.seq.Current()
	if q == nil {
		return false
	}
	ledger := r.ledgers[q.ID]
	for id := range r.players {
		if !ledger.Contains(id) {
			return false
		}
	}
	return true
}

// settleCurrent finalizes the active question exactly once: unanswered
// players get a zero-point entry and their streak reset.
func (r *Room) settleCurrent() {
	q := r.seq.Current()
	ledger := r.ledgers[q.ID]
	if ledger.settled {
		return
	}
	ledger.settled = true

	for id, p := range r.players {
		if ledger.Contains(id) {
			continue
		}
		ledger.Append(&Submission{
			PlayerID:      id,
			QuestionID:    q.ID,
			SelectedIndex: -1,
		})
		p.Streak = 0
	}
	r.status = StatusQuestionSettled
}

// activeTimerSeconds resolves the per-question override, if any.
func (r *Room) activeTimerSeconds() int {
	if q := r.seq.Current(); q != nil && q.TimerSeconds > 0 {
		return q.TimerSeconds
	}
	return r.TimerSeconds
}

// Deadline reports when the active question's timer runs out.
func (r *Room) Deadline() (time.Time, bool) {
	if r.status != StatusInProgress {
		return time.Time{}, false
	}
	return r.questionStart.Add(time.Duration(r.activeTimerSeconds()) * time.Second), true
}

// CheckTimer settles the active question if its timer has elapsed. A
// late fire after the question already settled (or the game ended) is a
// no-op, never an error. Reports whether this call settled.
func (r *Room) CheckTimer(now time.Time) bool {
	if r.status != StatusInProgress {
		return false
	}
	deadline, _ := r.Deadline()
	if now.Before(deadline) {
		return false
	}
	r.settleCurrent()
	return true
}

// Advance moves to the next question, or ends the game when the list is
// exhausted. Only the host may advance, from QUESTION_SETTLED or from
// IN_PROGRESS once the timer has elapsed (forcing settlement first).
// Advancing an already ENDED room is a no-op. Reports whether the game
// is over.
func (r *Room) Advance(requesterID int64, now time.Time) (bool, error) {
	if r.status == StatusEnded {
		return true, nil
	}
	if requesterID != r.hostID {
		return false, ErrNotHost
	}
	switch r.status {
	case StatusQuestionSettled:
	case StatusInProgress:
		deadline, _ := r.Deadline()
		if now.Before(deadline) {
			return false, ErrInvalidTransition
		}
		r.settleCurrent()
	default:
		return false, ErrInvalidTransition
	}

	if !r.seq.Advance() {
		r.status = StatusEnded
		return true, nil
	}
	r.activateCurrent(now)
	r.status = StatusInProgress
	return false, nil
}

// EndGame force-ends the room regardless of pending answers. Pending
// unanswered players get no score adjustment. Idempotent once ENDED.
func (r *Room) EndGame(requesterID int64) error {
	if r.status == StatusEnded {
		return nil
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}
	r.status = StatusEnded
	return nil
}

// Snapshot hands out an immutable copy for readers. The live room keeps
// mutating behind it.
func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		Code:         r.Code,
		CategoryID:   r.CategoryID,
		ThemeBased:   r.ThemeBased,
		Status:       r.status,
		TimerSeconds: r.TimerSeconds,
		MaxPlayers:   r.MaxPlayers,
		HostID:       r.hostID,
		Leaderboard:  BuildLeaderboard(r),
	}
	for _, p := range r.players {
		snap.Players = append(snap.Players, *p)
	}
	sortPlayersByJoin(snap.Players)

	if r.seq != nil {
		snap.QuestionIndex = r.seq.Index()
		snap.QuestionCount = r.seq.Len()
		if q := r.seq.Current(); q != nil && r.status != StatusEnded {
			view := q.View()
			snap.CurrentQuestion = &view
			snap.QuestionStarted = r.questionStart
			snap.AnsweredCount = r.ledgers[q.ID].Count()
		}
	}
	return snap
}
