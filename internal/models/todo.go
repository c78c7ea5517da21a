package models

import "time"

// TodoItem is a single to-do list entry.
type TodoItem struct {
	ID          string    `json:"id" bson:"_id"`
	Description string    `json:"description" bson:"description"`
	Creator     string    `json:"creator" bson:"creator"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
