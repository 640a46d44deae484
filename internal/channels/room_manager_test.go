package channels

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baguette21/ECTrivia/internal/events"
	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/store"
)

// capturePublisher records envelopes for assertions.
type capturePublisher struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (p *capturePublisher) Publish(env events.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
}

func (p *capturePublisher) byType(t events.EventType) []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Envelope
	for _, env := range p.envelopes {
		if env.EventType == t {
			out = append(out, env)
		}
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRoom(t *testing.T, timerSeconds int) (*RoomManager, *store.MemoryStore, *capturePublisher) {
	t.Helper()
	st := store.NewMemoryStore()
	pub := &capturePublisher{}

	ctx := context.Background()
	_, err := st.AddRoomQuestion(ctx, "TEST01", store.QuestionInput{
		Text:         "Largest planet?",
		Answers:      []string{"Mars", "Jupiter", "Venus", "Saturn"},
		CorrectIndex: 1,
	})
	require.NoError(t, err)
	require.NoError(t, st.CreateRoom(ctx, &store.Room{
		Code: "TEST01", TimerSeconds: timerSeconds, MaxPlayers: 8, Status: string(game.StatusWaiting),
	}))

	room := game.NewRoom("TEST01", 0, false, timerSeconds, 8)
	rm := NewRoomManager(room, st, pub, testLogger(), nil)
	go rm.Start()
	t.Cleanup(rm.Stop)
	return rm, st, pub
}

func TestManagerFullGameFlow(t *testing.T) {
	rm, st, pub := setupRoom(t, 15)
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)
	bob, err := rm.Join(ctx, "bob")
	require.NoError(t, err)

	require.NoError(t, rm.StartGame(ctx, alice.ID))

	snap, err := rm.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.CurrentQuestion)
	qid := snap.CurrentQuestion.ID

	sub, settled, err := rm.SubmitAnswer(ctx, alice.ID, qid, 1, 0)
	require.NoError(t, err)
	assert.True(t, sub.Correct)
	assert.Equal(t, 1000, sub.Points)
	assert.False(t, settled)

	_, settled, err = rm.SubmitAnswer(ctx, bob.ID, qid, 0, 5000)
	require.NoError(t, err)
	assert.True(t, settled, "second of two answers settles the question")

	over, err := rm.Advance(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, over)

	snap, err = rm.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.StatusEnded, snap.Status)
	require.Len(t, snap.Leaderboard, 2)
	assert.Equal(t, alice.ID, snap.Leaderboard[0].PlayerID)
	assert.Equal(t, 1000, snap.Leaderboard[0].Score)
	assert.Equal(t, 1, snap.Leaderboard[0].Rank)
	assert.Equal(t, 2, snap.Leaderboard[1].Rank)

	// One envelope per successful mutation.
	assert.Len(t, pub.byType(events.PLAYER_JOINED), 2)
	assert.Len(t, pub.byType(events.GAME_STARTED), 1)
	assert.Len(t, pub.byType(events.ANSWER_SCORED), 2)
	assert.Len(t, pub.byType(events.GAME_ENDED), 1)

	// Final results reach the store asynchronously.
	assert.Eventually(t, func() bool {
		return len(st.FinalResults("TEST01")) == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManagerConcurrentSubmissionsNoDoubleScore(t *testing.T) {
	rm, _, _ := setupRoom(t, 15)
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)
	_, err = rm.Join(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, rm.StartGame(ctx, alice.ID))

	snap, err := rm.Snapshot(ctx)
	require.NoError(t, err)
	qid := snap.CurrentQuestion.ID

	// Hammer the same (player, question) pair from many goroutines:
	// exactly one submission may win.
	const n = 20
	var wg sync.WaitGroup
	accepted := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, _, err := rm.SubmitAnswer(ctx, alice.ID, qid, 1, 100)
			if err == nil {
				accepted <- sub.Points
			} else {
				assert.ErrorIs(t, err, game.ErrDuplicateSubmission)
			}
		}()
	}
	wg.Wait()
	close(accepted)

	var wins int
	for range accepted {
		wins++
	}
	assert.Equal(t, 1, wins)

	snap, err = rm.Snapshot(ctx)
	require.NoError(t, err)
	for _, p := range snap.Players {
		if p.ID == alice.ID {
			assert.Equal(t, 1, p.Streak)
		}
	}
}

func TestManagerTimerSettlesQuestion(t *testing.T) {
	rm, _, pub := setupRoom(t, 1) // 1s timer
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)
	_, err = rm.Join(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, rm.StartGame(ctx, alice.ID))

	assert.Eventually(t, func() bool {
		snap, err := rm.Snapshot(ctx)
		return err == nil && snap.Status == game.StatusQuestionSettled
	}, 3*time.Second, 20*time.Millisecond, "timer should settle the question with no submissions")

	assert.Len(t, pub.byType(events.QUESTION_SETTLED), 1)
}

func TestManagerEndGameOverridesTimer(t *testing.T) {
	rm, _, pub := setupRoom(t, 1)
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, rm.StartGame(ctx, alice.ID))
	require.NoError(t, rm.EndGame(ctx, alice.ID))

	snap, err := rm.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.StatusEnded, snap.Status)

	// Give the cancelled timer a chance to misfire, then make sure the
	// room stayed ENDED and settled nothing.
	time.Sleep(1500 * time.Millisecond)
	assert.Empty(t, pub.byType(events.QUESTION_SETTLED))
	assert.Len(t, pub.byType(events.GAME_ENDED), 1)
}

func TestManagerLeaveSettleNotifiesStateChange(t *testing.T) {
	rm, _, pub := setupRoom(t, 15)
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)
	bob, err := rm.Join(ctx, "bob")
	require.NoError(t, err)
	require.NoError(t, rm.StartGame(ctx, alice.ID))

	snap, err := rm.Snapshot(ctx)
	require.NoError(t, err)
	_, _, err = rm.SubmitAnswer(ctx, alice.ID, snap.CurrentQuestion.ID, 1, 0)
	require.NoError(t, err)

	listen := make(chan events.SseEvent, 16)
	rm.Subscribe(alice.ID, listen)
	defer rm.Unsubscribe(alice.ID)

	// Bob was the only unanswered player, so his departure settles the
	// question. Listeners hear about the state change over SSE.
	require.NoError(t, rm.Leave(ctx, bob.ID))

	var sawStateChange bool
	deadline := time.After(time.Second)
	for !sawStateChange {
		select {
		case ev := <-listen:
			if ev.EventType == events.ROOM_STATE_CHANGED {
				change, ok := ev.Data.(events.RoomStateChanged)
				require.True(t, ok)
				assert.Equal(t, game.StatusQuestionSettled, change.Status)
				sawStateChange = true
			}
		case <-deadline:
			t.Fatal("expected a ROOM_STATE_CHANGED event on the SSE channel")
		}
	}

	// The published stream stays at one envelope for the mutation.
	assert.Len(t, pub.byType(events.PLAYER_LEFT), 1)
	assert.Empty(t, pub.byType(events.ROOM_STATE_CHANGED))
}

func TestManagerSSEFanOut(t *testing.T) {
	rm, _, _ := setupRoom(t, 15)
	ctx := context.Background()

	alice, err := rm.Join(ctx, "alice")
	require.NoError(t, err)

	listen := make(chan events.SseEvent, 16)
	rm.Subscribe(alice.ID, listen)
	defer rm.Unsubscribe(alice.ID)

	_, err = rm.Join(ctx, "bob")
	require.NoError(t, err)

	select {
	case ev := <-listen:
		assert.Equal(t, events.PLAYER_JOINED, ev.EventType)
	case <-time.After(time.Second):
		t.Fatal("expected a PLAYER_JOINED event on the SSE channel")
	}
}
