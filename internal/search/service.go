// Package search finds posts by title and text. Meilisearch is used when
// configured and healthy; the database is the fallback.
package search

import (
	"context"
	"log"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/emilythestrangee/newsboard/internal/models"
)

// MaxResults caps every search response.
const MaxResults = 50

// Indexer receives posts as they are created.
type Indexer interface {
	IndexPost(post models.Post) error
}

// Service is the facade that tries Meilisearch first and falls back to SQL.
type Service struct {
	meili *Meili
	db    *gorm.DB
}

// NewService creates a search service. meili may be nil.
func NewService(db *gorm.DB, meili *Meili) *Service {
	return &Service{db: db, meili: meili}
}

// Search returns posts matching query ordered by sort. An empty sort keeps the
// engine's relevance order.
func (s *Service) Search(ctx context.Context, query string, sort models.Sort) ([]models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Post{}, nil
	}

	if s.meili != nil && s.meili.Healthy() {
		ids, err := s.meili.SearchIDs(query, MaxResults)
		if err == nil {
			return s.byIDs(ctx, ids, sort)
		}
		log.Printf("search: meilisearch error, falling back to sql: %v", err)
	}
	return s.sql(ctx, query, sort)
}

// IndexPost indexes a post in the background.
func (s *Service) IndexPost(post models.Post) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPost(post); err != nil {
			log.Printf("search: index post %d: %v", post.ID, err)
		}
	}()
}

// Reindex pushes every stored post to Meilisearch in batches.
func (s *Service) Reindex(ctx context.Context) error {
	if s.meili == nil {
		return nil
	}
	var posts []models.Post
	total := 0
	err := s.db.WithContext(ctx).FindInBatches(&posts, 500, func(tx *gorm.DB, batch int) error {
		total += len(posts)
		return s.meili.IndexPosts(posts)
	}).Error
	if err != nil {
		return err
	}
	log.Printf("search: reindexed %d posts", total)
	return nil
}

func (s *Service) sql(ctx context.Context, query string, sort models.Sort) ([]models.Post, error) {
	pattern := "%" + escapeLike(query) + "%"
	order := models.SortNew.Order()
	if sort != "" {
		order = sort.Order()
	}

	var posts []models.Post
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("title ILIKE ? OR text ILIKE ?", pattern, pattern).
		Order(order).
		Limit(MaxResults).
		Find(&posts).Error
	return posts, err
}

func (s *Service) byIDs(ctx context.Context, ids []int, sort models.Sort) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}

	q := s.db.WithContext(ctx).Preload("Author").Where("id IN ?", ids)
	if sort != "" {
		q = q.Order(sort.Order())
	}
	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	if sort != "" {
		return posts, nil
	}

	rank := make(map[int]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return rank[a.ID] - rank[b.ID]
	})
	return posts, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
