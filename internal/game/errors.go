package game

import "errors"

// Every mutating operation on a room returns one of these for expected
// failure conditions. Handlers map them to HTTP statuses; nothing here is
// fatal to the process.
var (
	ErrRoomFull            = errors.New("room is full")
	ErrDuplicateNickname   = errors.New("nickname already taken in this room")
	ErrUnknownPlayer       = errors.New("player is not in this room")
	ErrNotHost             = errors.New("only the host can do that")
	ErrInsufficientPlayers = errors.New("not enough players to start")
	ErrStaleQuestion       = errors.New("answer is for a question that is no longer active")
	ErrDuplicateSubmission = errors.New("player already answered this question")
	ErrInvalidTransition   = errors.New("operation not allowed in the current room state")
	ErrRoomCodeExists      = errors.New("room code already in use")
	ErrRoomNotFound        = errors.New("room not found")
)
