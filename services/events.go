package services

import "fmt"

// EventBroadcaster pushes change notifications to connected clients. The
// realtime hub implements it; services emit events only after the
// corresponding write has been committed.
type EventBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const RoomTournaments = "tournaments"

func UserRoom(userID int) string {
	return fmt.Sprintf("user_%d", userID)
}

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	EventTournamentUpdated = "TOURNAMENT_UPDATED"
	EventTournamentDeleted = "TOURNAMENT_DELETED"
	EventBalanceUpdated    = "BALANCE_UPDATED"
	EventRequestUpdated    = "REQUEST_UPDATED"
	EventNotification      = "NOTIFICATION"
)
