package models

import "time"

// Post is a short text update. Posts are never edited, so Author is a
// snapshot taken when the post is read.
type Post struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"-"`
	Author    Author    `json:"author"`
}

// Author is the part of a User shown next to a post.
type Author struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"-"`
}
