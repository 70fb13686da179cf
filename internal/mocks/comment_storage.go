package mocks

import (
	"sync"
	"time"

	"github.com/VitaminP8/blog/internal/access"
	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/internal/subscription"
	"github.com/VitaminP8/blog/models"
)

type MockCommentStorage struct {
	mu       sync.Mutex
	posts    *MockPostStorage
	comments map[uint][]*models.PostComment // postID -> комментарии
	nextID   uint
	manager  subscription.Manager // Для уведомлений о новых комментариях
}

func NewMockCommentStorage(posts *MockPostStorage, manager subscription.Manager) *MockCommentStorage {
	return &MockCommentStorage{
		posts:    posts,
		comments: make(map[uint][]*models.PostComment),
		nextID:   1,
		manager:  manager,
	}
}

func (m *MockCommentStorage) AddComment(postID, requesterID uint, body string) (*models.PostComment, error) {
	if _, err := m.posts.GetPostById(postID); err != nil {
		return nil, err
	}
	if len(body) == 0 || len(body) > 2000 {
		return nil, apperr.Validation("body", "content is too long or empty")
	}

	m.mu.Lock()
	comment := &models.PostComment{
		ID:        m.nextID,
		UserID:    requesterID,
		PostID:    postID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.comments[postID] = append(m.comments[postID], comment)
	m.mu.Unlock()

	if m.manager != nil {
		m.manager.Publish(postID, comment)
	}
	return comment, nil
}

func (m *MockCommentStorage) DeleteComment(postID, commentID, requesterID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	comments := m.comments[postID]
	for i, c := range comments {
		if c.ID != commentID {
			continue
		}
		if err := access.RequireOwner(c, requesterID, true); err != nil {
			return err
		}
		m.comments[postID] = append(comments[:i], comments[i+1:]...)
		return nil
	}
	return apperr.ErrNotFound
}

func (m *MockCommentStorage) ListComments(postID uint, page, limit int) (*pagination.Page[*models.PostComment], error) {
	if _, err := m.posts.GetPostById(postID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := pagination.Paginate(append([]*models.PostComment{}, m.comments[postID]...), page, limit)
	return &result, nil
}
