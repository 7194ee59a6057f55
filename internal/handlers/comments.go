package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/models"
)

type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

var errBadParent = errors.New("invalid parent comment")

// GetComments returns the flat comment list of a post, oldest first. The
// client builds the thread from the parent ids.
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := h.db.Select("id").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comments := []models.Comment{}
	if err := h.db.Where("post_id = ?", postID).Preload("Author").Order("created_at asc, id asc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	viewerID, _ := middleware.UserID(c)
	ids := make([]int, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	votes := viewerVotes(h.db, viewerID, "comment_id", ids)
	for i := range comments {
		comments[i].AuthorName = comments[i].Author.Username
		comments[i].ViewerVote = votes[comments[i].ID]
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment adds a top-level comment or a reply to a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var input models.CommentCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	authorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	comment := models.Comment{
		Content:  input.Content,
		PostID:   postID,
		AuthorID: authorID,
		ParentID: input.ParentID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}
		if input.ParentID != nil {
			var parent models.Comment
			err := tx.Select("id", "post_id").First(&parent, *input.ParentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && parent.PostID != postID) {
				return errBadParent
			}
			if err != nil {
				return err
			}
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	switch {
	case errors.Is(err, errBadParent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent comment"})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	h.db.Preload("Author").First(&comment, comment.ID)
	comment.AuthorName = comment.Author.Username
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment replaces the content of a comment (PROTECTED - author only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, ok := paramID(c, "commentId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var input models.CommentUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var comment models.Comment
	if err := h.db.Preload("Author").First(&comment, commentID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}

	if comment.AuthorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own comments"})
		return
	}

	if err := h.db.Model(&comment).Update("content", input.Content).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	comment.AuthorName = comment.Author.Username
	c.JSON(http.StatusOK, comment)
}

// VoteComment toggles the viewer's vote on a comment (PROTECTED - requires authentication)
func (h *CommentHandler) VoteComment(c *gin.Context) {
	commentID, ok := paramID(c, "commentId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be -1 or 1"})
		return
	}

	voterID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var resp models.VoteResponse
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.Select("id").First(&comment, commentID).Error; err != nil {
			return err
		}
		score, mark, err := toggleVote(tx, voterID, voteTarget{model: &models.Comment{}, column: "comment_id", id: commentID}, input.Direction)
		if err != nil {
			return err
		}
		resp = models.VoteResponse{ItemID: commentID, Score: score, Mark: mark}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
