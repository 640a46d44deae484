package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baguette21/ECTrivia/internal/channels"
	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/queue"
	"github.com/Baguette21/ECTrivia/internal/store"
)

type envelope struct {
	Error   bool            `json:"error"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := channels.NewRegistry(st, queue.NopPublisher{}, logger, time.Minute)
	hr := NewHandlerRepo(logger, registry, st)

	mux := chi.NewRouter()
	mux.Route("/rooms", func(r chi.Router) {
		r.Post("/", hr.CreateRoomHandler)
		r.Get("/{roomCode}", hr.GetRoomStateHandler)
		r.Get("/{roomCode}/leaderboard", hr.GetLeaderboardHandler)
		r.Post("/{roomCode}/join", hr.JoinRoomHandler)
		r.Delete("/{roomCode}/players/{playerId}", hr.LeaveRoomHandler)
		r.Post("/{roomCode}/start", hr.StartGameHandler)
		r.Post("/{roomCode}/advance", hr.AdvanceQuestionHandler)
		r.Post("/{roomCode}/end", hr.EndGameHandler)
		r.Post("/{roomCode}/answers", hr.SubmitAnswerHandler)
		r.Get("/{roomCode}/questions", hr.ListRoomQuestionsHandler)
		r.Post("/{roomCode}/questions", hr.AddRoomQuestionHandler)
		r.Post("/{roomCode}/questions/copy", hr.CopyQuestionsHandler)
	})
	mux.Route("/categories", func(r chi.Router) {
		r.Get("/", hr.ListCategoriesHandler)
		r.Post("/", hr.CreateCategoryHandler)
		r.Post("/{categoryId}/questions", hr.AddCategoryQuestionHandler)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func createRoom(t *testing.T, srv *httptest.Server, maxPlayers int) game.Snapshot {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/rooms", CreateRoomRequest{
		TimerSeconds: 30,
		MaxPlayers:   maxPlayers,
	})
	require.Equal(t, http.StatusCreated, status)
	var snap game.Snapshot
	decodeData(t, env, &snap)
	require.NotEmpty(t, snap.Code)
	return snap
}

func joinRoom(t *testing.T, srv *httptest.Server, code, nickname string) game.Player {
	t.Helper()
	status, env := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/join", JoinRoomRequest{Nickname: nickname})
	require.Equal(t, http.StatusCreated, status)
	var player game.Player
	decodeData(t, env, &player)
	return player
}

func addQuestion(t *testing.T, srv *httptest.Server, code, text string, correct int) {
	t.Helper()
	status, _ := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/questions", QuestionRequest{
		Text:         text,
		Answers:      []string{"red", "green", "blue"},
		CorrectIndex: correct,
	})
	require.Equal(t, http.StatusCreated, status)
}

func TestFullGameOverHTTP(t *testing.T) {
	srv, st := newTestServer(t)

	room := createRoom(t, srv, 4)
	code := room.Code
	assert.Equal(t, game.StatusWaiting, room.Status)

	addQuestion(t, srv, code, "first", 0)
	addQuestion(t, srv, code, "second", 2)

	alice := joinRoom(t, srv, code, "alice")
	bob := joinRoom(t, srv, code, "bob")

	// First joiner is the host, only the host may start.
	status, env := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/start", HostActionRequest{PlayerID: bob.ID})
	assert.Equal(t, http.StatusForbidden, status)
	assert.True(t, env.Error)

	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/start", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)
	var snap game.Snapshot
	decodeData(t, env, &snap)
	assert.Equal(t, game.StatusInProgress, snap.Status)
	require.NotNil(t, snap.CurrentQuestion)
	q1 := *snap.CurrentQuestion

	// Alice answers correctly at zero elapsed, full base points.
	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/answers", SubmitAnswerRequest{
		PlayerID: alice.ID, QuestionID: q1.ID, SelectedIndex: 0, ElapsedMs: 0,
	})
	require.Equal(t, http.StatusOK, status)
	var sub game.Submission
	decodeData(t, env, &sub)
	assert.True(t, sub.Correct)
	assert.Equal(t, 1000, sub.Points)

	// Second shot at the same question is rejected.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/answers", SubmitAnswerRequest{
		PlayerID: alice.ID, QuestionID: q1.ID, SelectedIndex: 1, ElapsedMs: 50,
	})
	assert.Equal(t, http.StatusConflict, status)

	// Advancing while bob still owes an answer and the timer is live.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/advance", HostActionRequest{PlayerID: alice.ID})
	assert.Equal(t, http.StatusConflict, status)

	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/answers", SubmitAnswerRequest{
		PlayerID: bob.ID, QuestionID: q1.ID, SelectedIndex: 1, ElapsedMs: 100,
	})
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &sub)
	assert.False(t, sub.Correct)
	assert.Zero(t, sub.Points)

	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/advance", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &snap)
	assert.Equal(t, game.StatusInProgress, snap.Status)
	require.NotNil(t, snap.CurrentQuestion)
	q2 := snap.CurrentQuestion
	require.NotEqual(t, q1.ID, q2.ID)

	for _, p := range []game.Player{alice, bob} {
		status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/answers", SubmitAnswerRequest{
			PlayerID: p.ID, QuestionID: q2.ID, SelectedIndex: 2, ElapsedMs: 0,
		})
		require.Equal(t, http.StatusOK, status)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+code+"/advance", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "game over", env.Message)
	decodeData(t, env, &snap)
	assert.Equal(t, game.StatusEnded, snap.Status)

	status, env = doJSON(t, http.MethodGet, srv.URL+"/rooms/"+code+"/leaderboard", nil)
	require.Equal(t, http.StatusOK, status)
	var board []game.LeaderboardEntry
	decodeData(t, env, &board)
	require.Len(t, board, 2)
	assert.Equal(t, alice.ID, board[0].PlayerID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2050, board[0].Score, "1000 + 1000 + second-in-a-row streak bonus")
	assert.Equal(t, bob.ID, board[1].PlayerID)
	assert.Equal(t, 2, board[1].Rank)

	assert.Eventually(t, func() bool {
		return len(st.FinalResults(code)) == 2
	}, 2*time.Second, 10*time.Millisecond, "final standings persist after game over")
}

func TestJoinErrorsOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	room := createRoom(t, srv, 2)
	joinRoom(t, srv, room.Code, "alice")

	// Case folds on nickname collisions.
	status, env := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/join", JoinRoomRequest{Nickname: "ALICE"})
	assert.Equal(t, http.StatusConflict, status)
	assert.True(t, env.Error)

	joinRoom(t, srv, room.Code, "bob")
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/join", JoinRoomRequest{Nickname: "carol"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/join", JoinRoomRequest{Nickname: ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/NOPE42/join", JoinRoomRequest{Nickname: "dave"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSubmitAnswerValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	room := createRoom(t, srv, 4)
	addQuestion(t, srv, room.Code, "only", 0)
	alice := joinRoom(t, srv, room.Code, "alice")

	// Answers before the game starts are rejected.
	status, _ := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/answers", SubmitAnswerRequest{
		PlayerID: alice.ID, QuestionID: 1, SelectedIndex: 0,
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/start", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/answers", SubmitAnswerRequest{
		PlayerID: alice.ID, QuestionID: 1, SelectedIndex: 0, ElapsedMs: -5,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/answers", SubmitAnswerRequest{
		PlayerID: alice.ID, QuestionID: 9999, SelectedIndex: 0,
	})
	assert.Equal(t, http.StatusConflict, status, "a question id the room is not on is stale")

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/answers", SubmitAnswerRequest{
		PlayerID: 777, QuestionID: 1, SelectedIndex: 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoomStateHidesCorrectAnswer(t *testing.T) {
	srv, _ := newTestServer(t)

	room := createRoom(t, srv, 4)
	addQuestion(t, srv, room.Code, "secret", 1)
	alice := joinRoom(t, srv, room.Code, "alice")

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/start", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)

	status, env := doJSON(t, http.MethodGet, srv.URL+"/rooms/"+room.Code, nil)
	require.Equal(t, http.StatusOK, status)
	var snap game.Snapshot
	decodeData(t, env, &snap)
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, "secret", snap.CurrentQuestion.Text)
	assert.NotContains(t, string(env.Data), "correct_index",
		"the room state players poll must not carry the answer key")
}

func TestStartGameRequiresQuestions(t *testing.T) {
	srv, _ := newTestServer(t)

	room := createRoom(t, srv, 4)
	alice := joinRoom(t, srv, room.Code, "alice")

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/start", HostActionRequest{PlayerID: alice.ID})
	assert.Equal(t, http.StatusConflict, status)
}

func TestHostMigrationOnLeave(t *testing.T) {
	srv, _ := newTestServer(t)

	room := createRoom(t, srv, 4)
	addQuestion(t, srv, room.Code, "only", 0)
	alice := joinRoom(t, srv, room.Code, "alice")
	bob := joinRoom(t, srv, room.Code, "bob")

	status, _ := doJSON(t, http.MethodDelete,
		fmt.Sprintf("%s/rooms/%s/players/%d", srv.URL, room.Code, alice.ID), nil)
	require.Equal(t, http.StatusOK, status)

	// Bob inherits the host seat and may start.
	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/start", HostActionRequest{PlayerID: bob.ID})
	assert.Equal(t, http.StatusOK, status)
}

func TestThemeRoomCopiesCategoryQuestions(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/categories", CreateCategoryRequest{Name: "Geography"})
	require.Equal(t, http.StatusCreated, status)
	var cat store.Category
	decodeData(t, env, &cat)

	for i := 0; i < 3; i++ {
		status, _ = doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/categories/%d/questions", srv.URL, cat.ID), QuestionRequest{
				Text:         "capital",
				Answers:      []string{"a", "b"},
				CorrectIndex: 1,
			})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms", CreateRoomRequest{
		CategoryID: cat.ID,
		ThemeBased: true,
	})
	require.Equal(t, http.StatusCreated, status)
	var room game.Snapshot
	decodeData(t, env, &room)

	alice := joinRoom(t, srv, room.Code, "alice")
	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/start", HostActionRequest{PlayerID: alice.ID})
	require.Equal(t, http.StatusOK, status)
	var snap game.Snapshot
	decodeData(t, env, &snap)
	assert.Equal(t, 3, snap.QuestionCount)
	require.NotNil(t, snap.CurrentQuestion)
}

func TestCopyQuestionsOmittedLimitCopiesAll(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := doJSON(t, http.MethodPost, srv.URL+"/categories", CreateCategoryRequest{Name: "Movies"})
	require.Equal(t, http.StatusCreated, status)
	var cat store.Category
	decodeData(t, env, &cat)

	for i := 0; i < 4; i++ {
		status, _ = doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/categories/%d/questions", srv.URL, cat.ID), QuestionRequest{
				Text:         "quote",
				Answers:      []string{"a", "b"},
				CorrectIndex: 0,
			})
		require.Equal(t, http.StatusCreated, status)
	}

	room := createRoom(t, srv, 4)
	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/questions/copy",
		CopyQuestionsRequest{CategoryID: cat.ID})
	require.Equal(t, http.StatusOK, status)
	var result map[string]int
	decodeData(t, env, &result)
	assert.Equal(t, 4, result["copied"], "an omitted limit copies the whole category")

	other := createRoom(t, srv, 4)
	status, env = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+other.Code+"/questions/copy",
		CopyQuestionsRequest{CategoryID: cat.ID, Limit: 2})
	require.Equal(t, http.StatusOK, status)
	decodeData(t, env, &result)
	assert.Equal(t, 2, result["copied"])
}

func TestQuestionValidationOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	room := createRoom(t, srv, 4)

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/questions", QuestionRequest{
		Text:         "no answers",
		Answers:      []string{"only one"},
		CorrectIndex: 0,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/rooms/"+room.Code+"/questions", QuestionRequest{
		Text:         "bad index",
		Answers:      []string{"a", "b"},
		CorrectIndex: 5,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
