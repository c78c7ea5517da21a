package websocket

import "encoding/json"

// Actions pushed to subscribers when their records change.
const (
	ActionPostCreated     = "post.created"
	ActionPostUpdated     = "post.updated"
	ActionPostDeleted     = "post.deleted"
	ActionCalendarCreated = "calendar.created"
	ActionCalendarDeleted = "calendar.deleted"
	ActionTodoCreated     = "todo.created"
	ActionTodoDeleted     = "todo.deleted"

	ActionPing  = "ping"
	ActionPong  = "pong"
	ActionError = "error"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewErrorMessage creates a JSON-encoded error message.
func NewErrorMessage(text string) []byte {
	data, _ := json.Marshal(Message{Action: ActionError, Payload: map[string]string{"message": text}})
	return data
}

// NewPongMessage creates the reply to a client ping.
func NewPongMessage() []byte {
	data, _ := json.Marshal(Message{Action: ActionPong})
	return data
}

// DeletedPayload is sent with *.deleted actions.
type DeletedPayload struct {
	ID string `json:"id"`
}
