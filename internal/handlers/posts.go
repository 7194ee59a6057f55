package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/search"
)

const defaultPageSize = 20

type PostHandler struct {
	db       *gorm.DB
	searcher *search.Service
}

func NewPostHandler(db *gorm.DB, searcher *search.Service) *PostHandler {
	return &PostHandler{db: db, searcher: searcher}
}

// decorate fills author names and, for an authenticated viewer, their votes.
func (h *PostHandler) decorate(c *gin.Context, posts []models.Post) {
	viewerID, _ := middleware.UserID(c)
	ids := make([]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	votes := viewerVotes(h.db, viewerID, "post_id", ids)
	for i := range posts {
		posts[i].AuthorName = posts[i].Author.Username
		posts[i].ViewerVote = votes[posts[i].ID]
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// GetPosts returns one page of posts ordered by ?sort=new|top|best
func (h *PostHandler) GetPosts(c *gin.Context) {
	sort, err := models.ParseSort(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok || limit == 0 || limit > models.MaxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 50"})
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}

	posts := []models.Post{}
	if err := h.db.Preload("Author").Order(sort.Order()).Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	h.decorate(c, posts)
	c.JSON(http.StatusOK, posts)
}

// SearchPosts returns the posts matching ?q, optionally ordered by ?sort
func (h *PostHandler) SearchPosts(c *gin.Context) {
	var sort models.Sort
	if raw := c.Query("sort"); raw != "" {
		s, err := models.ParseSort(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sort = s
	}

	posts, err := h.searcher.Search(c.Request.Context(), c.Query("q"), sort)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search posts"})
		return
	}

	h.decorate(c, posts)
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var post models.Post
	if err := h.db.Preload("Author").First(&post, postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	posts := []models.Post{post}
	h.decorate(c, posts)
	c.JSON(http.StatusOK, posts[0])
}

// CreatePost creates a link or text post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.PostCreate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := input.Normalize(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authorID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	post := models.Post{Title: input.Title, AuthorID: authorID}
	if input.URL != "" {
		post.URL = &input.URL
	} else {
		post.Text = &input.Text
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	// Reload with author information
	h.db.Preload("Author").First(&post, post.ID)
	post.AuthorName = post.Author.Username
	h.searcher.IndexPost(post)

	log.Printf("📝 Post %d created by user %d", post.ID, authorID)
	c.JSON(http.StatusCreated, post)
}

// VotePost toggles the viewer's vote on a post (PROTECTED - requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
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
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}
		score, mark, err := toggleVote(tx, voterID, voteTarget{model: &models.Post{}, column: "post_id", id: postID}, input.Direction)
		if err != nil {
			return err
		}
		resp = models.VoteResponse{ItemID: postID, Score: score, Mark: mark}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		return
	}

	c.JSON(http.StatusOK, resp)
}
