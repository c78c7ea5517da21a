package models

import "time"

// CalendarItem is a single calendar entry. Date and Time are stored as the
// client sent them and are never parsed.
type CalendarItem struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Date        string    `json:"date" bson:"date"`
	Time        string    `json:"time" bson:"time"`
	Creator     string    `json:"creator" bson:"creator"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
