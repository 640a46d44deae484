package handlers

import (
	"context"
	"crypto/rand"
	"fmt"
)

// Room codes are short, human-shareable and case-insensitive. Ambiguous
// characters (0/O, 1/I) are left out of the alphabet.
const (
	codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeLength   = 6
	maxCodeTries = 10
)

// newRoomCode issues a candidate code that does not collide with any
// persisted room. The registry still rejects a racing duplicate at
// create time, so this check is best-effort, not a lock.
func (hr *HandlerRepo) newRoomCode(ctx context.Context) (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < maxCodeTries; attempt++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate room code: %w", err)
		}
		for i := range buf {
			buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
		}
		code := string(buf)

		exists, err := hr.st.RoomCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check room code: %w", err)
		}
		if !exists {
			return code, nil
		}
		hr.logger.Warn("room code collision, retrying", "room_code", code, "attempt", attempt+1)
	}
	return "", fmt.Errorf("failed to issue a unique room code after %d attempts", maxCodeTries)
}
