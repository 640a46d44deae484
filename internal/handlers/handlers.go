package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Baguette21/ECTrivia/internal/channels"
	"github.com/Baguette21/ECTrivia/internal/game"
	"github.com/Baguette21/ECTrivia/internal/store"
	"github.com/Baguette21/ECTrivia/pkg/common/response"
)

// HandlerRepo holds all the dependencies required by the handlers: the
// application logger, the room registry and the durable store.
type HandlerRepo struct {
	logger   *slog.Logger
	registry *channels.Registry
	st       store.Store
}

func NewHandlerRepo(logger *slog.Logger, registry *channels.Registry, st store.Store) *HandlerRepo {
	return &HandlerRepo{
		logger:   logger,
		registry: registry,
		st:       st,
	}
}

// writeGameError maps the game error taxonomy onto HTTP statuses. All
// of these are expected, recoverable request rejections.
func (hr *HandlerRepo) writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrRoomNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrDuplicateNickname),
		errors.Is(err, game.ErrDuplicateSubmission),
		errors.Is(err, game.ErrRoomCodeExists),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, game.ErrStaleQuestion),
		errors.Is(err, game.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, game.ErrNotHost):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrUnknownPlayer), errors.Is(err, game.ErrInsufficientPlayers):
		status = http.StatusBadRequest
	default:
		hr.logger.Error("unexpected error handling request", "error", err)
		response.Err(w, status, "internal error")
		return
	}
	response.Err(w, status, err.Error())
}
