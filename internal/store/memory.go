package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Baguette21/ECTrivia/internal/game"
)

// MemoryStore is a map-backed Store for development and tests. Same
// contract as the Postgres one, nothing survives a restart.
type MemoryStore struct {
	roomsMu sync.RWMutex
	rooms   map[string]*Room

	categoriesMu   sync.RWMutex
	categories     map[int64]*Category
	nextCategoryID int64

	questionsMu    sync.RWMutex
	roomQuestions  map[string][]game.Question
	catQuestions   map[int64][]game.Question
	nextQuestionID int64

	resultsMu sync.RWMutex
	results   map[string][]FinalResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:         make(map[string]*Room),
		categories:    make(map[int64]*Category),
		roomQuestions: make(map[string][]game.Question),
		catQuestions:  make(map[int64][]game.Question),
		results:       make(map[string][]FinalResult),
	}
}

func normCode(code string) string {
	return strings.ToUpper(code)
}

func (s *MemoryStore) CreateRoom(_ context.Context, room *Room) error {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()
	code := normCode(room.Code)
	if _, ok := s.rooms[code]; ok {
		return ErrDuplicate
	}
	cp := *room
	cp.Code = code
	s.rooms[code] = &cp
	return nil
}

func (s *MemoryStore) GetRoomByCode(_ context.Context, code string) (*Room, error) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	room, ok := s.rooms[normCode(code)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *MemoryStore) RoomCodeExists(_ context.Context, code string) (bool, error) {
	s.roomsMu.RLock()
	defer s.roomsMu.RUnlock()
	_, ok := s.rooms[normCode(code)]
	return ok, nil
}

func (s *MemoryStore) UpdateRoomStatus(_ context.Context, code string, status string) error {
	s.roomsMu.Lock()
	defer s.roomsMu.Unlock()
	room, ok := s.rooms[normCode(code)]
	if !ok {
		return ErrNotFound
	}
	room.Status = status
	return nil
}

func (s *MemoryStore) ListActiveCategories(_ context.Context) ([]Category, error) {
	s.categoriesMu.RLock()
	defer s.categoriesMu.RUnlock()
	var cats []Category
	for _, c := range s.categories {
		if c.Active {
			cats = append(cats, *c)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (s *MemoryStore) GetCategory(_ context.Context, id int64) (*Category, error) {
	s.categoriesMu.RLock()
	defer s.categoriesMu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) CreateCategory(_ context.Context, name, description string) (*Category, error) {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, name) {
			return nil, ErrDuplicate
		}
	}
	s.nextCategoryID++
	c := &Category{
		ID:          s.nextCategoryID,
		Name:        name,
		Description: description,
		Active:      true,
		CreatedAt:   pgtype.Timestamptz{Valid: false},
	}
	s.categories[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) DeleteCategory(_ context.Context, id int64) error {
	s.categoriesMu.Lock()
	defer s.categoriesMu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return ErrNotFound
	}
	c.Active = false
	return nil
}

func (s *MemoryStore) LoadQuestionsForRoom(_ context.Context, roomCode string) ([]game.Question, error) {
	s.questionsMu.RLock()
	defer s.questionsMu.RUnlock()
	return append([]game.Question(nil), s.roomQuestions[normCode(roomCode)]...), nil
}

func (s *MemoryStore) LoadQuestionsForCategory(_ context.Context, categoryID int64, limit int) ([]game.Question, error) {
	s.questionsMu.RLock()
	defer s.questionsMu.RUnlock()
	qs := s.catQuestions[categoryID]
	if limit > 0 && limit < len(qs) {
		qs = qs[:limit]
	}
	return append([]game.Question(nil), qs...), nil
}

func (s *MemoryStore) AddRoomQuestion(_ context.Context, roomCode string, in QuestionInput) (*game.Question, error) {
	s.questionsMu.Lock()
	defer s.questionsMu.Unlock()
	code := normCode(roomCode)
	s.nextQuestionID++
	q := game.Question{
		ID:           s.nextQuestionID,
		Position:     len(s.roomQuestions[code]),
		Text:         in.Text,
		Answers:      append([]string(nil), in.Answers...),
		CorrectIndex: in.CorrectIndex,
		TimerSeconds: in.TimerSeconds,
	}
	s.roomQuestions[code] = append(s.roomQuestions[code], q)
	return &q, nil
}

func (s *MemoryStore) AddCategoryQuestion(_ context.Context, categoryID int64, in QuestionInput) (*game.Question, error) {
	s.questionsMu.Lock()
	defer s.questionsMu.Unlock()
	s.nextQuestionID++
	q := game.Question{
		ID:           s.nextQuestionID,
		Position:     len(s.catQuestions[categoryID]),
		Text:         in.Text,
		Answers:      append([]string(nil), in.Answers...),
		CorrectIndex: in.CorrectIndex,
		TimerSeconds: in.TimerSeconds,
	}
	s.catQuestions[categoryID] = append(s.catQuestions[categoryID], q)
	return &q, nil
}

func (s *MemoryStore) UpdateQuestion(_ context.Context, questionID int64, in QuestionInput) (*game.Question, error) {
	s.questionsMu.Lock()
	defer s.questionsMu.Unlock()
	update := func(qs []game.Question) (*game.Question, bool) {
		for i := range qs {
			if qs[i].ID == questionID {
				qs[i].Text = in.Text
				qs[i].Answers = append([]string(nil), in.Answers...)
				qs[i].CorrectIndex = in.CorrectIndex
				qs[i].TimerSeconds = in.TimerSeconds
				cp := qs[i]
				return &cp, true
			}
		}
		return nil, false
	}
	for _, qs := range s.roomQuestions {
		if q, ok := update(qs); ok {
			return q, nil
		}
	}
	for _, qs := range s.catQuestions {
		if q, ok := update(qs); ok {
			return q, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeleteQuestion(_ context.Context, questionID int64) error {
	s.questionsMu.Lock()
	defer s.questionsMu.Unlock()
	remove := func(qs []game.Question) ([]game.Question, bool) {
		for i := range qs {
			if qs[i].ID == questionID {
				return append(qs[:i], qs[i+1:]...), true
			}
		}
		return qs, false
	}
	for code, qs := range s.roomQuestions {
		if next, ok := remove(qs); ok {
			s.roomQuestions[code] = next
			return nil
		}
	}
	for id, qs := range s.catQuestions {
		if next, ok := remove(qs); ok {
			s.catQuestions[id] = next
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CopyQuestionsFromCategory(_ context.Context, roomCode string, categoryID int64, limit int) (int, error) {
	s.questionsMu.Lock()
	defer s.questionsMu.Unlock()
	code := normCode(roomCode)
	src := s.catQuestions[categoryID]
	if limit > 0 && limit < len(src) {
		src = src[:limit]
	}
	for _, q := range src {
		s.nextQuestionID++
		cp := q
		cp.ID = s.nextQuestionID
		cp.Position = len(s.roomQuestions[code])
		cp.Answers = append([]string(nil), q.Answers...)
		s.roomQuestions[code] = append(s.roomQuestions[code], cp)
	}
	return len(src), nil
}

func (s *MemoryStore) PersistFinalResults(_ context.Context, roomCode string, leaderboard []game.LeaderboardEntry) error {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()
	code := normCode(roomCode)
	rows := make([]FinalResult, 0, len(leaderboard))
	for _, entry := range leaderboard {
		rows = append(rows, FinalResult{
			RoomCode: code,
			PlayerID: entry.PlayerID,
			Nickname: entry.Nickname,
			Score:    entry.Score,
			Rank:     entry.Rank,
		})
	}
	s.results[code] = rows
	return nil
}

// FinalResults is a test hook; the Postgres store exposes results only
// through SQL.
func (s *MemoryStore) FinalResults(roomCode string) []FinalResult {
	s.resultsMu.RLock()
	defer s.resultsMu.RUnlock()
	return append([]FinalResult(nil), s.results[normCode(roomCode)]...)
}
