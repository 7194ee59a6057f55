package search

import (
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"

	"github.com/emilythestrangee/newsboard/internal/models"
)

const idxPosts = "newsboard_posts"

type postRecord struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"createdAt"`
}

// Meili indexes and searches posts in Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the posts index. An
// unreachable server is tolerated; the health loop picks it up later.
func NewMeili(url, apiKey string) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxPosts, PrimaryKey: "id"}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxPosts, err)
	}
	searchable := []string{"title", "text", "url"}
	if _, err := m.client.Index(idxPosts).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs for %s: %v", idxPosts, err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// SearchIDs returns the IDs of matching posts in relevance order.
func (m *Meili) SearchIDs(query string, limit int) ([]int, error) {
	resp, err := m.client.Index(idxPosts).Search(query, &meili.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch search: %w", err)
	}

	ids := make([]int, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		raw, ok := hit["id"]
		if !ok {
			continue
		}
		var id int
		if err := json.Unmarshal(raw, &id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *Meili) IndexPost(post models.Post) error {
	_, err := m.client.Index(idxPosts).AddDocuments([]postRecord{toRecord(post)}, nil)
	return err
}

// IndexPosts bulk-indexes posts.
func (m *Meili) IndexPosts(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	records := make([]postRecord, len(posts))
	for i, p := range posts {
		records[i] = toRecord(p)
	}
	_, err := m.client.Index(idxPosts).AddDocuments(records, nil)
	return err
}

func toRecord(p models.Post) postRecord {
	r := postRecord{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt.Unix()}
	if p.URL != nil {
		r.URL = *p.URL
	}
	if p.Text != nil {
		r.Text = *p.Text
	}
	return r
}
