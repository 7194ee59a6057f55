package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/models"
	"github.com/emilythestrangee/newsboard/internal/search"
)

// Requests rejected before any query never touch the database, so a nil
// *gorm.DB is enough here. The database paths are covered by the server
// integration tests.
func testRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := middleware.NewJWT("secret", time.Hour)
	h := NewHandler(nil, tokens, search.NewService(nil, nil))
	token, err := tokens.Issue(models.User{ID: 1, Username: "ada"})
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.POST("/api/register", h.Auth.Register)
	r.GET("/api/posts", tokens.Optional(), h.Post.GetPosts)
	r.GET("/api/posts/search", tokens.Optional(), h.Post.SearchPosts)
	r.GET("/api/posts/:id", tokens.Optional(), h.Post.GetPost)
	r.POST("/api/posts", tokens.Required(), h.Post.CreatePost)
	r.POST("/api/posts/:id/vote", tokens.Required(), h.Post.VotePost)
	r.POST("/api/posts/:id/comments", tokens.Required(), h.Comment.CreateComment)
	r.PUT("/api/comments/:commentId", tokens.Required(), h.Comment.UpdateComment)
	return r, token
}

func TestRejectedBeforeDatabase(t *testing.T) {
	r, token := testRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"unknown sort", http.MethodGet, "/api/posts?sort=hot", ""},
		{"limit too large", http.MethodGet, "/api/posts?limit=51", ""},
		{"zero limit", http.MethodGet, "/api/posts?limit=0", ""},
		{"negative offset", http.MethodGet, "/api/posts?offset=-1", ""},
		{"search with unknown sort", http.MethodGet, "/api/posts/search?q=go&sort=hot", ""},
		{"bad post id", http.MethodGet, "/api/posts/abc", ""},
		{"short title", http.MethodPost, "/api/posts", `{"title":"ab","text":"x"}`},
		{"url and text", http.MethodPost, "/api/posts", `{"title":"hello","url":"https://go.dev","text":"x"}`},
		{"neither url nor text", http.MethodPost, "/api/posts", `{"title":"hello"}`},
		{"ftp url", http.MethodPost, "/api/posts", `{"title":"hello","url":"ftp://go.dev"}`},
		{"zero direction", http.MethodPost, "/api/posts/1/vote", `{"direction":0}`},
		{"direction two", http.MethodPost, "/api/posts/1/vote", `{"direction":2}`},
		{"empty comment", http.MethodPost, "/api/posts/1/comments", `{"content":""}`},
		{"blank comment", http.MethodPost, "/api/posts/1/comments", `{"content":"   "}`},
		{"long comment", http.MethodPut, "/api/comments/1", `{"content":"` + strings.Repeat("x", 5001) + `"}`},
		{"short password", http.MethodPost, "/api/register", `{"username":"ada","email":"ada@example.com","password":"short"}`},
		{"password mismatch", http.MethodPost, "/api/register", `{"username":"ada","email":"ada@example.com","password":"longenough","confirm_password":"different"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestParamID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false}
	for raw, want := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := paramID(c, "id")
		assert.Equal(t, want, ok, raw)
	}
}
