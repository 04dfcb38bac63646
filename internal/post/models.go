package post

import "time"

// Post is a short text authored by one identity. AuthorID is the owner used
// by the ownership check.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
