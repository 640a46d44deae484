package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Baguette21/ECTrivia/internal/store"
	"github.com/Baguette21/ECTrivia/pkg/common/request"
	"github.com/Baguette21/ECTrivia/pkg/common/response"
)

func (hr *HandlerRepo) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := hr.st.ListActiveCategories(r.Context())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, categories, "")
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (hr *HandlerRepo) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		response.Err(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := hr.st.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, category, "category created")
}

func (hr *HandlerRepo) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid category id")
		return
	}
	category, err := hr.st.GetCategory(r.Context(), id)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, category, "")
}

func (hr *HandlerRepo) DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := hr.st.DeleteCategory(r.Context(), id); err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil, "category deleted")
}

type QuestionRequest struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correct_index"`
	TimerSeconds int      `json:"timer_seconds"`
}

func (q *QuestionRequest) validate() string {
	if q.Text == "" {
		return "question text is required"
	}
	if len(q.Answers) < 2 {
		return "at least two answers are required"
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Answers) {
		return "correct_index must point at one of the answers"
	}
	return ""
}

func (q *QuestionRequest) toInput() store.QuestionInput {
	return store.QuestionInput{
		Text:         q.Text,
		Answers:      q.Answers,
		CorrectIndex: q.CorrectIndex,
		TimerSeconds: q.TimerSeconds,
	}
}

func (hr *HandlerRepo) ListRoomQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	questions, err := hr.st.LoadQuestionsForRoom(r.Context(), code)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, questions, "")
}

func (hr *HandlerRepo) AddRoomQuestionHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req QuestionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.Err(w, http.StatusBadRequest, msg)
		return
	}

	question, err := hr.st.AddRoomQuestion(r.Context(), code, req.toInput())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, question, "question added")
}

func (hr *HandlerRepo) AddCategoryQuestionHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(chi.URLParam(r, "categoryId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req QuestionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.Err(w, http.StatusBadRequest, msg)
		return
	}

	question, err := hr.st.AddCategoryQuestion(r.Context(), categoryID, req.toInput())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, question, "question added")
}

func (hr *HandlerRepo) UpdateQuestionHandler(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid question id")
		return
	}
	var req QuestionRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		response.Err(w, http.StatusBadRequest, msg)
		return
	}

	question, err := hr.st.UpdateQuestion(r.Context(), questionID, req.toInput())
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, question, "question updated")
}

func (hr *HandlerRepo) DeleteQuestionHandler(w http.ResponseWriter, r *http.Request) {
	questionID, err := strconv.ParseInt(chi.URLParam(r, "questionId"), 10, 64)
	if err != nil {
		response.Err(w, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := hr.st.DeleteQuestion(r.Context(), questionID); err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil, "question deleted")
}

type CopyQuestionsRequest struct {
	CategoryID int64 `json:"category_id"`
	Limit      int   `json:"limit"`
}

// CopyQuestionsHandler copies a category's questions into a room so the
// host can tweak them before starting.
func (hr *HandlerRepo) CopyQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "roomCode")
	var req CopyQuestionsRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.Err(w, http.StatusBadRequest, err.Error())
		return
	}

	copied, err := hr.st.CopyQuestionsFromCategory(r.Context(), code, req.CategoryID, req.Limit)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int{"copied": copied}, "questions copied")
}
