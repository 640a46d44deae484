package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Baguette21/ECTrivia/internal/game"
)

const uniqueViolation = "23505"

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) CreateRoom(ctx context.Context, room *Room) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rooms (code, category_id, theme_based, timer_seconds, max_players, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		room.Code, room.CategoryID, room.ThemeBased, room.TimerSeconds, room.MaxPlayers, room.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRoomByCode(ctx context.Context, code string) (*Room, error) {
	var room Room
	err := s.pool.QueryRow(ctx,
		`SELECT code, category_id, theme_based, timer_seconds, max_players, status, created_at
		 FROM rooms WHERE upper(code) = upper($1)`, code).
		Scan(&room.Code, &room.CategoryID, &room.ThemeBased, &room.TimerSeconds,
			&room.MaxPlayers, &room.Status, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select room: %w", err)
	}
	return &room, nil
}

func (s *PostgresStore) RoomCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE upper(code) = upper($1))`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room code exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) UpdateRoomStatus(ctx context.Context, code string, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rooms SET status = $2 WHERE upper(code) = upper($1)`, code, status)
	if err != nil {
		return fmt.Errorf("update room status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListActiveCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, description, active, created_at
		 FROM categories WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, active, created_at FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	var c Category
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (name, description, active)
		 VALUES ($1, $2, true)
		 RETURNING id, name, description, active, created_at`,
		name, description).
		Scan(&c.ID, &c.Name, &c.Description, &c.Active, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	// Soft delete so rooms already playing the category keep working.
	tag, err := s.pool.Exec(ctx, `UPDATE categories SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const questionColumns = `id, COALESCE(position, 0), text, answers, correct_index, COALESCE(timer_seconds, 0)`

func scanQuestions(rows pgx.Rows) ([]game.Question, error) {
	defer rows.Close()
	var qs []game.Question
	for rows.Next() {
		var q game.Question
		if err := rows.Scan(&q.ID, &q.Position, &q.Text, &q.Answers, &q.CorrectIndex, &q.TimerSeconds); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

func (s *PostgresStore) LoadQuestionsForRoom(ctx context.Context, roomCode string) ([]game.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE upper(room_code) = upper($1) ORDER BY position, id`, roomCode)
	if err != nil {
		return nil, fmt.Errorf("load room questions: %w", err)
	}
	return scanQuestions(rows)
}

func (s *PostgresStore) LoadQuestionsForCategory(ctx context.Context, categoryID int64, limit int) ([]game.Question, error) {
	// NULLIF keeps a limit <= 0 from becoming LIMIT 0, which would
	// return nothing; LIMIT NULL means no limit.
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE category_id = $1 ORDER BY position, id
		 LIMIT NULLIF(GREATEST($2, 0), 0)`, categoryID, limit)
	if err != nil {
		return nil, fmt.Errorf("load category questions: %w", err)
	}
	return scanQuestions(rows)
}

func (s *PostgresStore) AddRoomQuestion(ctx context.Context, roomCode string, in QuestionInput) (*game.Question, error) {
	var q game.Question
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (room_code, position, text, answers, correct_index, timer_seconds)
		 VALUES (upper($1),
		         (SELECT COALESCE(MAX(position), -1) + 1 FROM questions WHERE upper(room_code) = upper($1)),
		         $2, $3, $4, $5)
		 RETURNING `+questionColumns,
		roomCode, in.Text, in.Answers, in.CorrectIndex, in.TimerSeconds).
		Scan(&q.ID, &q.Position, &q.Text, &q.Answers, &q.CorrectIndex, &q.TimerSeconds)
	if err != nil {
		return nil, fmt.Errorf("insert room question: %w", err)
	}
	return &q, nil
}

func (s *PostgresStore) AddCategoryQuestion(ctx context.Context, categoryID int64, in QuestionInput) (*game.Question, error) {
	var q game.Question
	err := s.pool.QueryRow(ctx,
		`INSERT INTO questions (category_id, position, text, answers, correct_index, timer_seconds)
		 VALUES ($1,
		         (SELECT COALESCE(MAX(position), -1) + 1 FROM questions WHERE category_id = $1),
		         $2, $3, $4, $5)
		 RETURNING `+questionColumns,
		categoryID, in.Text, in.Answers, in.CorrectIndex, in.TimerSeconds).
		Scan(&q.ID, &q.Position, &q.Text, &q.Answers, &q.CorrectIndex, &q.TimerSeconds)
	if err != nil {
		return nil, fmt.Errorf("insert category question: %w", err)
	}
	return &q, nil
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, questionID int64, in QuestionInput) (*game.Question, error) {
	var q game.Question
	err := s.pool.QueryRow(ctx,
		`UPDATE questions
		 SET text = $2, answers = $3, correct_index = $4, timer_seconds = $5
		 WHERE id = $1
		 RETURNING `+questionColumns,
		questionID, in.Text, in.Answers, in.CorrectIndex, in.TimerSeconds).
		Scan(&q.ID, &q.Position, &q.Text, &q.Answers, &q.CorrectIndex, &q.TimerSeconds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	return &q, nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, questionID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CopyQuestionsFromCategory(ctx context.Context, roomCode string, categoryID int64, limit int) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO questions (room_code, position, text, answers, correct_index, timer_seconds)
		 SELECT upper($1), position, text, answers, correct_index, timer_seconds
		 FROM questions WHERE category_id = $2 ORDER BY position, id
		 LIMIT NULLIF(GREATEST($3, 0), 0)`,
		roomCode, categoryID, limit)
	if err != nil {
		return 0, fmt.Errorf("copy category questions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// PersistFinalResults writes the final leaderboard. The game core calls
// this fire-and-forget after ENDED, so the retry lives here: a few
// bounded attempts with backoff for the at-least-once promise.
func (s *PostgresStore) PersistFinalResults(ctx context.Context, roomCode string, leaderboard []game.LeaderboardEntry) error {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if lastErr = s.insertResults(ctx, roomCode, leaderboard); lastErr == nil {
			return nil
		}
		s.logger.Warn("persist final results failed", "room_code", roomCode, "attempt", attempt, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
		}
	}
	return lastErr
}

func (s *PostgresStore) insertResults(ctx context.Context, roomCode string, leaderboard []game.LeaderboardEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, entry := range leaderboard {
		_, err := tx.Exec(ctx,
			`INSERT INTO final_results (room_code, player_id, nickname, score, rank)
			 VALUES (upper($1), $2, $3, $4, $5)
			 ON CONFLICT (room_code, player_id) DO UPDATE SET score = $4, rank = $5`,
			roomCode, entry.PlayerID, entry.Nickname, entry.Score, entry.Rank)
		if err != nil {
			return fmt.Errorf("insert final result: %w", err)
		}
	}
	return tx.Commit(ctx)
}
