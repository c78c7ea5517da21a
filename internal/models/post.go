package models

import "time"

// Post is an image-attached entry owned by a user.
type Post struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Image       string    `json:"image" bson:"image"` // Relative path of the stored upload
	Creator     string    `json:"creator" bson:"creator"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
