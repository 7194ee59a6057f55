package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/newsboard/internal/config"
	"github.com/emilythestrangee/newsboard/internal/database"
	"github.com/emilythestrangee/newsboard/internal/handlers"
	"github.com/emilythestrangee/newsboard/internal/middleware"
	"github.com/emilythestrangee/newsboard/internal/search"
)

const (
	commentLimit       = 10
	commentWindow      = 2 * time.Minute
	commentUpdateLimit = 4
	commentUpdateWin   = time.Minute
)

type Server struct {
	cfg      config.Config
	db       database.Service
	tokens   *middleware.JWT
	limiter  *middleware.RateLimiter
	searcher *search.Service
	handler  *handlers.Handler
}

// New wires the server's dependencies. limiter and meili may be nil.
func New(cfg config.Config, db database.Service, limiter *middleware.RateLimiter, meili *search.Meili) *Server {
	tokens := middleware.NewJWT(cfg.JWTSecret, cfg.JWTTTL)
	searcher := search.NewService(db.GetDB(), meili)
	return &Server{
		cfg:      cfg,
		db:       db,
		tokens:   tokens,
		limiter:  limiter,
		searcher: searcher,
		handler:  handlers.NewHandler(db.GetDB(), tokens, searcher),
	}
}

// Searcher exposes the search facade, for reindexing at startup.
func (s *Server) Searcher() *search.Service {
	return s.searcher
}

// HTTPServer creates the HTTP server listening on the configured port
func (s *Server) HTTPServer() *http.Server {
	server := &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", s.cfg.Port)
	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	origins := strings.Split(s.cfg.CORSOrigin, ",")
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: origins[0] != "*",
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", s.healthHandler)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads; a valid token adds the viewer's votes
		public := api.Group("")
		public.Use(s.tokens.Optional())
		{
			public.GET("/posts", s.handler.Post.GetPosts)
			public.GET("/posts/search", s.handler.Post.SearchPosts)
			public.GET("/posts/:id", s.handler.Post.GetPost)
			public.GET("/posts/:id/comments", s.handler.Comment.GetComments)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(s.tokens.Required())
		{
			protected.GET("/me", s.handler.Auth.GetMe)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)

			protected.POST("/posts/:id/comments",
				s.limiter.Limit("comment", commentLimit, commentWindow, "Too many comments, slow down"),
				s.handler.Comment.CreateComment)
			protected.PUT("/comments/:commentId",
				s.limiter.Limit("update_comment", commentUpdateLimit, commentUpdateWin, "Too many edits, slow down"),
				s.handler.Comment.UpdateComment)
			protected.POST("/comments/:commentId/vote", s.handler.Comment.VoteComment)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.db.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
