package channels

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Baguette21/ECTrivia/internal/events"
	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/store"
)

// Publisher receives one event envelope per successful room mutation.
// Delivery is the publisher's problem; the room never waits for it.
type Publisher interface {
	Publish(env events.Envelope)
}

// RoomManager owns the mutable state of one room. A single goroutine
// consumes the command channel, so every mutation is serialized and the
// game.Room itself needs no locking. Callers block only until their
// command has been processed and get a result or an error back.
// Connected clients register SSE listener channels; events are fanned
// out to them and to the external publisher.
type RoomManager struct {
	Code string

	room     *game.Room
	commands chan command
	done     chan struct{}
	stopOnce sync.Once

	mu        sync.RWMutex
	listeners map[int64]chan<- events.SseEvent

	logger  *slog.Logger
	st      store.Store
	pub     Publisher
	onEnded func(code string)

	questionTimer *time.Timer
}

type command interface{}

type joinCmd struct {
	nickname string
	reply    chan joinReply
}

type joinReply struct {
	player *game.Player
	err    error
}

type leaveCmd struct {
	playerID int64
	reply    chan error
}

type startCmd struct {
	requesterID int64
	questions   []game.Question
	reply       chan error
}

type submitCmd struct {
	playerID      int64
	questionID    int64
	selectedIndex int
	elapsedMs     int
	reply         chan submitReply
}

type submitReply struct {
	submission *game.Submission
	settled    bool
	err        error
}

type advanceCmd struct {
	requesterID int64
	reply       chan advanceReply
}

type advanceReply struct {
	gameOver bool
	err      error
}

type endCmd struct {
	requesterID int64
	reply       chan error
}

type snapshotCmd struct {
	reply chan game.Snapshot
}

type timerFiredCmd struct{}

func NewRoomManager(room *game.Room, st store.Store, pub Publisher, logger *slog.Logger, onEnded func(code string)) *RoomManager {
	return &RoomManager{
		Code:      room.Code,
		room:      room,
		commands:  make(chan command),
		done:      make(chan struct{}),
		listeners: make(map[int64]chan<- events.SseEvent),
		logger:    logger.With("room_code", room.Code),
		st:        st,
		pub:       pub,
		onEnded:   onEnded,
	}
}

// Start runs the command loop. Call once, in its own goroutine.
func (rm *RoomManager) Start() {
	for {
		select {
		case <-rm.done:
			return
		case cmd := <-rm.commands:
			rm.handle(cmd)
		}
	}
}

// Stop terminates the command loop. Pending senders are released by the
// done channel.
func (rm *RoomManager) Stop() {
	rm.stopOnce.Do(func() {
		rm.stopQuestionTimer()
		close(rm.done)
	})
}

func (rm *RoomManager) handle(cmd command) {
	switch c := cmd.(type) {
	case joinCmd:
		player, err := rm.room.Join(c.nickname, time.Now())
		if err == nil {
			rm.emit(events.PLAYER_JOINED, events.PlayerJoined{RoomCode: rm.Code, Player: *player})
		}
		c.reply <- joinReply{player: player, err: err}

	case leaveCmd:
		prevStatus := rm.room.Status()
		hostChanged, ended, err := rm.room.Leave(c.playerID)
		if err == nil {
			left := events.PlayerLeft{RoomCode: rm.Code, PlayerID: c.playerID}
			if hostChanged {
				left.NewHostID = rm.room.HostID()
			}
			rm.emit(events.PLAYER_LEFT, left)
			// A departure can settle the question or end the room.
			// PLAYER_LEFT is the one published envelope for this
			// mutation; the state change itself goes to SSE listeners
			// so clients re-render without polling.
			if status := rm.room.Status(); status != prevStatus {
				rm.notifyStateChange(status)
				rm.notifyLeaderboard()
			}
			if ended {
				rm.stopQuestionTimer()
				rm.finishGame()
			}
		}
		c.reply <- err

	case startCmd:
		err := rm.room.StartGame(c.requesterID, c.questions, time.Now())
		if err == nil {
			rm.emit(events.GAME_STARTED, events.GameStarted{RoomCode: rm.Code, QuestionCount: len(c.questions)})
			rm.scheduleQuestionTimer()
		}
		c.reply <- err

	case submitCmd:
		sub, settled, err := rm.room.SubmitAnswer(c.playerID, c.questionID, c.selectedIndex, c.elapsedMs)
		if err == nil {
			player, _ := rm.room.Player(c.playerID)
			scored := events.AnswerScored{
				RoomCode:     rm.Code,
				PlayerID:     c.playerID,
				QuestionID:   c.questionID,
				Correct:      sub.Correct,
				PointsEarned: sub.Points,
			}
			if player != nil {
				scored.TotalScore = player.Score
				scored.Streak = player.Streak
			}
			rm.emit(events.ANSWER_SCORED, scored)
			rm.notifyLeaderboard()
			if settled {
				rm.stopQuestionTimer()
			}
		}
		c.reply <- submitReply{submission: sub, settled: settled, err: err}

	case advanceCmd:
		wasEnded := rm.room.Status() == game.StatusEnded
		over, err := rm.room.Advance(c.requesterID, time.Now())
		if err == nil {
			if over {
				rm.stopQuestionTimer()
				// Advancing an already ended room is a no-op; only a
				// fresh transition to ENDED emits and persists.
				if !wasEnded {
					rm.emitGameEnded()
				}
			} else {
				snap := rm.room.Snapshot()
				rm.emit(events.QUESTION_ADVANCED, events.QuestionAdvanced{
					RoomCode:      rm.Code,
					QuestionIndex: snap.QuestionIndex,
					Question:      *snap.CurrentQuestion,
				})
				rm.scheduleQuestionTimer()
			}
		}
		c.reply <- advanceReply{gameOver: over, err: err}

	case endCmd:
		wasEnded := rm.room.Status() == game.StatusEnded
		err := rm.room.EndGame(c.requesterID)
		if err == nil && !wasEnded {
			rm.stopQuestionTimer()
			rm.emitGameEnded()
		}
		c.reply <- err

	case snapshotCmd:
		c.reply <- rm.room.Snapshot()

	case timerFiredCmd:
		// Idempotent: a late fire after settlement or end is a no-op.
		if rm.room.CheckTimer(time.Now()) {
			snap := rm.room.Snapshot()
			settled := events.QuestionSettled{RoomCode: rm.Code}
			if snap.CurrentQuestion != nil {
				settled.QuestionID = snap.CurrentQuestion.ID
			}
			rm.emit(events.QUESTION_SETTLED, settled)
			rm.notifyLeaderboard()
		}
	}
}

// emit publishes exactly one envelope for a successful mutation and
// fans the same event out to connected SSE listeners.
func (rm *RoomManager) emit(t events.EventType, payload any) {
	rm.pub.Publish(events.NewEnvelope(rm.Code, t, payload))
	rm.fanOut(events.SseEvent{EventType: t, Data: payload})
}

// notifyStateChange is SSE-only, like notifyLeaderboard: the published
// envelope stream stays at one envelope per mutation.
func (rm *RoomManager) notifyStateChange(status game.Status) {
	rm.fanOut(events.SseEvent{
		EventType: events.ROOM_STATE_CHANGED,
		Data:      events.RoomStateChanged{RoomCode: rm.Code, Status: status},
	})
}

// notifyLeaderboard is SSE-only sugar so clients can re-render without
// recomputing; it is not part of the published envelope stream.
func (rm *RoomManager) notifyLeaderboard() {
	rm.fanOut(events.SseEvent{
		EventType: events.LEADERBOARD_UPDATED,
		Data: events.LeaderboardUpdated{
			RoomCode:    rm.Code,
			Leaderboard: game.BuildLeaderboard(rm.room),
		},
	})
}

func (rm *RoomManager) emitGameEnded() {
	leaderboard := game.BuildLeaderboard(rm.room)
	rm.emit(events.GAME_ENDED, events.GameEnded{RoomCode: rm.Code, Leaderboard: leaderboard})
	rm.finishGameWith(leaderboard)
}

func (rm *RoomManager) finishGame() {
	rm.finishGameWith(game.BuildLeaderboard(rm.room))
}

// finishGameWith persists the final results off the command loop so the
// room never blocks on the store, and tells the registry to schedule
// eviction.
func (rm *RoomManager) finishGameWith(leaderboard []game.LeaderboardEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rm.st.UpdateRoomStatus(ctx, rm.Code, string(game.StatusEnded)); err != nil {
			rm.logger.Error("failed to mark room ended", "error", err)
		}
		if err := rm.st.PersistFinalResults(ctx, rm.Code, leaderboard); err != nil {
			rm.logger.Error("failed to persist final results", "error", err)
		}
	}()
	if rm.onEnded != nil {
		rm.onEnded(rm.Code)
	}
}

func (rm *RoomManager) scheduleQuestionTimer() {
	rm.stopQuestionTimer()
	deadline, ok := rm.room.Deadline()
	if !ok {
		return
	}
	rm.questionTimer = time.AfterFunc(time.Until(deadline), func() {
		select {
		case rm.commands <- timerFiredCmd{}:
		case <-rm.done:
		}
	})
}

func (rm *RoomManager) stopQuestionTimer() {
	if rm.questionTimer != nil {
		rm.questionTimer.Stop()
		rm.questionTimer = nil
	}
}

// send serializes one command through the room's goroutine.
func (rm *RoomManager) send(ctx context.Context, cmd command) error {
	select {
	case rm.commands <- cmd:
		return nil
	case <-rm.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rm *RoomManager) Join(ctx context.Context, nickname string) (*game.Player, error) {
	cmd := joinCmd{nickname: nickname, reply: make(chan joinReply, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return nil, err
	}
	r := <-cmd.reply
	return r.player, r.err
}

func (rm *RoomManager) Leave(ctx context.Context, playerID int64) error {
	cmd := leaveCmd{playerID: playerID, reply: make(chan error, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return err
	}
	return <-cmd.reply
}

// StartGame loads the question list first (custom room questions, or a
// copy from the category for theme rooms) and only then hands the
// in-memory transition to the room goroutine, so the store round-trip
// never happens while holding room ownership.
func (rm *RoomManager) StartGame(ctx context.Context, requesterID int64) error {
	questions, err := rm.loadQuestions(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return game.ErrInvalidTransition
	}
	cmd := startCmd{requesterID: requesterID, questions: questions, reply: make(chan error, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return err
	}
	return <-cmd.reply
}

const themeQuestionLimit = 10

func (rm *RoomManager) loadQuestions(ctx context.Context) ([]game.Question, error) {
	questions, err := rm.st.LoadQuestionsForRoom(ctx, rm.Code)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 && rm.room.ThemeBased {
		if _, err := rm.st.CopyQuestionsFromCategory(ctx, rm.Code, rm.room.CategoryID, themeQuestionLimit); err != nil {
			return nil, err
		}
		questions, err = rm.st.LoadQuestionsForRoom(ctx, rm.Code)
		if err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func (rm *RoomManager) SubmitAnswer(ctx context.Context, playerID, questionID int64, selectedIndex, elapsedMs int) (*game.Submission, bool, error) {
	cmd := submitCmd{
		playerID:      playerID,
		questionID:    questionID,
		selectedIndex: selectedIndex,
		elapsedMs:     elapsedMs,
		reply:         make(chan submitReply, 1),
	}
	if err := rm.send(ctx, cmd); err != nil {
		return nil, false, err
	}
	r := <-cmd.reply
	return r.submission, r.settled, r.err
}

func (rm *RoomManager) Advance(ctx context.Context, requesterID int64) (bool, error) {
	cmd := advanceCmd{requesterID: requesterID, reply: make(chan advanceReply, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return false, err
	}
	r := <-cmd.reply
	return r.gameOver, r.err
}

func (rm *RoomManager) EndGame(ctx context.Context, requesterID int64) error {
	cmd := endCmd{requesterID: requesterID, reply: make(chan error, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return err
	}
	return <-cmd.reply
}

// Snapshot returns an immutable copy of the room, serialized through
// the command loop so readers always see a consistent point in time.
func (rm *RoomManager) Snapshot(ctx context.Context) (game.Snapshot, error) {
	cmd := snapshotCmd{reply: make(chan game.Snapshot, 1)}
	if err := rm.send(ctx, cmd); err != nil {
		return game.Snapshot{}, err
	}
	return <-cmd.reply, nil
}

// Subscribe registers an SSE listener channel for a player.
func (rm *RoomManager) Subscribe(playerID int64, ch chan<- events.SseEvent) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.listeners[playerID] = ch
}

func (rm *RoomManager) Unsubscribe(playerID int64) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	delete(rm.listeners, playerID)
}

func (rm *RoomManager) fanOut(event events.SseEvent) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for playerID, listener := range rm.listeners {
		select {
		case listener <- event:
		default:
			// Slow consumer; drop rather than stall the room.
			rm.logger.Warn("dropping event for slow listener", "player_id", playerID, "event_type", event.EventType)
		}
	}
}
