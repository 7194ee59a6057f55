package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/search"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Post    *PostHandler
	Comment *CommentHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, tokens *middleware.JWT, searcher *search.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(db, tokens),
		Post:    NewPostHandler(db, searcher),
		Comment: NewCommentHandler(db),
	}
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
