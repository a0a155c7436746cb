package service

import (
	"encoding/json"
	"html"
	"log"
	"strings"

	"github.com/calmroots/backend/internal/entity"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const forumIndex = "forum_threads"

// SearchService mirrors forum threads into Meilisearch. Callers nil-guard
// it: when Meilisearch is not configured, forum search falls back to SQL.
type SearchService interface {
	IndexThread(t *entity.ForumThread) error
	RemoveThread(id string) error
	SearchThreads(query string, limit int) ([]string, error)
}

type meiliSearchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliSearchService) initIndex() {
	sortable := []string{"created_at"}
	if _, err := s.client.Index(forumIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update %s sortable attributes: %v", forumIndex, err)
	}
}

type threadDocument struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorName string `json:"author_name"`
	CreatedAt  int64  `json:"created_at"`
}

// cleanContentForIndex strips markup so the index holds plain text.
func (s *meiliSearchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexThread(t *entity.ForumThread) error {
	doc := threadDocument{
		ID:         t.ID.String(),
		Title:      t.Title,
		Content:    s.cleanContentForIndex(t.Content),
		AuthorName: t.AuthorName,
		CreatedAt:  t.CreatedAt.Unix(),
	}

	_, err := s.client.Index(forumIndex).AddDocuments([]threadDocument{doc}, strPtr("id"))
	if err != nil {
		log.Printf("failed to index thread %s: %v", t.ID, err)
	}
	return err
}

func (s *meiliSearchService) RemoveThread(id string) error {
	_, err := s.client.Index(forumIndex).DeleteDocument(id)
	return err
}

// SearchThreads returns matching thread IDs; the caller hydrates them from
// Postgres.
func (s *meiliSearchService) SearchThreads(query string, limit int) ([]string, error) {
	resp, err := s.client.Index(forumIndex).Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Hits)
	if err != nil {
		return nil, err
	}
	var docs []threadDocument
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}
