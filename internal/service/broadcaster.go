package service

// WebSocket message types
const (
	MsgSaveSucceeded = "save_succeeded"
	MsgSaveFailed    = "save_failed"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToUser(userID string, msgType string, payload interface{})
}
