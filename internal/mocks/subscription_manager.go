package mocks

import (
	"sync"
	"time"

	"github.com/VitaminP8/blog/models"
)

type MockSubscriptionManager struct {
	mu            sync.Mutex
	subs          map[uint][]chan *models.PostComment // postID -> список каналов подписчиков
	notifications map[uint][]*models.PostComment      // Для отслеживания в тестах
}

func NewMockSubscriptionManager() *MockSubscriptionManager {
	return &MockSubscriptionManager{
		subs:          make(map[uint][]chan *models.PostComment),
		notifications: make(map[uint][]*models.PostComment),
	}
}

func (m *MockSubscriptionManager) Subscribe(postID uint) (<-chan *models.PostComment, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *models.PostComment, 1)
	m.subs[postID] = append(m.subs[postID], ch)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			subscribers := m.subs[postID]
			for i, sub := range subscribers {
				if sub == ch {
					m.subs[postID] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
		})
	}

	return ch, cancel
}

func (m *MockSubscriptionManager) Publish(postID uint, comment *models.PostComment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[postID] {
		select {
		case sub <- comment:
		case <-time.After(100 * time.Millisecond):
		}
	}

	// Сохраняем уведомление для тестирования
	m.notifications[postID] = append(m.notifications[postID], comment)
}

// GetNotificationsForPost возвращает все уведомления для конкретного поста
func (m *MockSubscriptionManager) GetNotificationsForPost(postID uint) []*models.PostComment {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.notifications[postID]
}
