package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (app *Application) routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(cors.AllowAll().Handler)

	mux.Route("/events", func(r chi.Router) {
		r.Get("/", app.handlers.EventHandler)
	})

	mux.Route("/rooms", func(r chi.Router) {
		r.Post("/", app.handlers.CreateRoomHandler)
		r.Get("/{roomCode}", app.handlers.GetRoomStateHandler)
		r.Get("/{roomCode}/leaderboard", app.handlers.GetLeaderboardHandler)

		r.Post("/{roomCode}/join", app.handlers.JoinRoomHandler)
		r.Delete("/{roomCode}/players/{playerId}", app.handlers.LeaveRoomHandler)

		r.Post("/{roomCode}/start", app.handlers.StartGameHandler)
		r.Post("/{roomCode}/advance", app.handlers.AdvanceQuestionHandler)
		r.Post("/{roomCode}/end", app.handlers.EndGameHandler)

		r.Post("/{roomCode}/answers", app.handlers.SubmitAnswerHandler)

		r.Get("/{roomCode}/questions", app.handlers.ListRoomQuestionsHandler)
		r.Post("/{roomCode}/questions", app.handlers.AddRoomQuestionHandler)
		r.Post("/{roomCode}/questions/copy", app.handlers.CopyQuestionsHandler)
	})

	mux.Route("/categories", func(r chi.Router) {
		r.Get("/", app.handlers.ListCategoriesHandler)
		r.Post("/", app.handlers.CreateCategoryHandler)
		r.Get("/{categoryId}", app.handlers.GetCategoryHandler)
		r.Delete("/{categoryId}", app.handlers.DeleteCategoryHandler)
		r.Post("/{categoryId}/questions", app.handlers.AddCategoryQuestionHandler)
	})

	mux.Route("/questions", func(r chi.Router) {
		r.Put("/{questionId}", app.handlers.UpdateQuestionHandler)
		r.Delete("/{questionId}", app.handlers.DeleteQuestionHandler)
	})

	return mux
}
