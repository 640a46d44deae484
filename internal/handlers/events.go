package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Baguette21/ECTrivia/internal/events"
)

// EventHandler streams room events to one player over SSE. The player
// gets every event their room's manager fans out until they disconnect
// or the room goes away.
func (hr *HandlerRepo) EventHandler(w http.ResponseWriter, r *http.Request) {
	roomCode := r.URL.Query().Get("room_code")
	playerID, err := strconv.ParseInt(r.URL.Query().Get("player_id"), 10, 64)
	if err != nil || roomCode == "" {
		http.Error(w, "room_code and player_id are required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	rm, err := hr.registry.Get(roomCode)
	if err != nil {
		hr.writeGameError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Buffered so a burst of events does not force the room to drop.
	listen := make(chan events.SseEvent, 16)
	rm.Subscribe(playerID, listen)
	defer rm.Unsubscribe(playerID)

	hr.logger.Info("SSE connection established", "player_id", playerID, "room_code", roomCode)
	defer hr.logger.Info("SSE connection closed", "player_id", playerID, "room_code", roomCode)

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-listen:
			data, err := json.Marshal(event.Data)
			if err != nil {
				hr.logger.Error("failed to marshal SSE event", "error", err, "player_id", playerID)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", event.EventType)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
