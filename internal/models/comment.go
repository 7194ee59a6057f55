package models

import "time"

// MaxCommentLength bounds comment content, counted in characters.
const MaxCommentLength = 5000

type Comment struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	AuthorID   int       `gorm:"not null;index" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"-"`
	AuthorName string    `gorm:"-" json:"author_name"`
	PostID     int       `gorm:"not null;index" json:"post_id"`
	ParentID   *int      `gorm:"index" json:"parent_id"`
	Points     int       `gorm:"not null;default:0" json:"points"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	ViewerVote int `gorm:"-" json:"viewer_vote"`
}

type CommentCreate struct {
	Content  string `json:"content" binding:"required,min=1,max=5000"`
	ParentID *int   `json:"parent_id,omitempty"`
}

type CommentUpdate struct {
	Content string `json:"content" binding:"required,min=1,max=5000"`
}
