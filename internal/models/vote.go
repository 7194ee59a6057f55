package models

import "time"

// Vote tracks one user's vote on a post or a comment. Exactly one of
// PostID and CommentID is set.
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `gorm:"not null;uniqueIndex:idx_vote_post;uniqueIndex:idx_vote_comment" json:"user_id"`
	PostID    *int      `gorm:"uniqueIndex:idx_vote_post" json:"post_id,omitempty"`
	CommentID *int      `gorm:"uniqueIndex:idx_vote_comment" json:"comment_id,omitempty"`
	Value     int       `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Direction int `json:"direction" binding:"required,oneof=-1 1"`
}

type VoteResponse struct {
	ItemID int `json:"item_id"`
	Score  int `json:"score"`
	Mark   int `json:"mark"` // -1, 0 or 1
}
