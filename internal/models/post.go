package models

import (
	"errors"
	"strings"
	"time"
)

type Post struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"not null;size:300;index" json:"title"`
	URL          *string   `gorm:"size:500" json:"url"`
	Text         *string   `gorm:"type:text" json:"text"`
	AuthorID     int       `gorm:"not null;index" json:"author_id"`
	Author       User      `gorm:"foreignKey:AuthorID" json:"-"`
	AuthorName   string    `gorm:"-" json:"author_name"`
	Points       int       `gorm:"not null;default:0" json:"points"`
	CommentCount int       `gorm:"not null;default:0" json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Filled per request for an authenticated viewer: -1, 0 or 1.
	ViewerVote int `gorm:"-" json:"viewer_vote"`
}

// IsLink reports whether the post points at an external URL.
func (p Post) IsLink() bool {
	return p.URL != nil && *p.URL != ""
}

type PostCreate struct {
	Title string `json:"title" binding:"required,min=3,max=300"`
	URL   string `json:"url,omitempty" binding:"omitempty,url,max=500"`
	Text  string `json:"text,omitempty"`
}

var ErrPostContent = errors.New("exactly one of url or text is required")

// Normalize trims the fields in place and checks the url/text exclusivity.
func (p *PostCreate) Normalize() error {
	p.Title = strings.TrimSpace(p.Title)
	p.URL = strings.TrimSpace(p.URL)
	p.Text = strings.TrimSpace(p.Text)
	if (p.URL == "") == (p.Text == "") {
		return ErrPostContent
	}
	if p.URL != "" && !strings.HasPrefix(p.URL, "http://") && !strings.HasPrefix(p.URL, "https://") {
		return errors.New("url must use http or https")
	}
	return nil
}
