package store

import (
	"context"
	"errors"

	"github.com/Baguette21/ECTrivia/internal/game"
)

var (
	ErrNotFound  = errors.New("store: not found")
	ErrDuplicate = errors.New("store: duplicate entry")
)

// Store is the durable side of the trivia service: canonical category
// and question text, room rows and final results. The live game never
// blocks on it while holding room ownership; loads happen before a game
// starts and final results are persisted asynchronously after ENDED.
type Store interface {
	// Rooms
	CreateRoom(ctx context.Context, room *Room) error
	GetRoomByCode(ctx context.Context, code string) (*Room, error)
	RoomCodeExists(ctx context.Context, code string) (bool, error)
	UpdateRoomStatus(ctx context.Context, code string, status string) error

	// Categories
	ListActiveCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int64) (*Category, error)
	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	// Questions. A limit <= 0 means no limit, in every implementation.
	LoadQuestionsForRoom(ctx context.Context, roomCode string) ([]game.Question, error)
	LoadQuestionsForCategory(ctx context.Context, categoryID int64, limit int) ([]game.Question, error)
	AddRoomQuestion(ctx context.Context, roomCode string, in QuestionInput) (*game.Question, error)
	AddCategoryQuestion(ctx context.Context, categoryID int64, in QuestionInput) (*game.Question, error)
	UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput) (*game.Question, error)
	DeleteQuestion(ctx context.Context, questionID int64) error
	CopyQuestionsFromCategory(ctx context.Context, roomCode string, categoryID int64, limit int) (int, error)

	// Results
	PersistFinalResults(ctx context.Context, roomCode string, leaderboard []game.LeaderboardEntry) error
}
