package subscription

import (
	"sync"
	"time"

	"github.com/VitaminP8/blog/models"
)

// publishTimeout - сколько Publish ждет медленного подписчика, прежде чем пропустить его
const publishTimeout = 500 * time.Millisecond

type SubscriptionManager struct {
	mu   sync.Mutex
	subs map[uint][]chan *models.PostComment // postID -> список каналов подписчиков
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subs: make(map[uint][]chan *models.PostComment),
	}
}

func (m *SubscriptionManager) Subscribe(postID uint) (<-chan *models.PostComment, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *models.PostComment, 1) // Буфер 1, чтобы не блокировался писатель

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
			if len(m.subs[postID]) == 0 {
				delete(m.subs, postID)
			}
		})
	}

	return ch, cancel
}

func (m *SubscriptionManager) Publish(postID uint, comment *models.PostComment) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subs[postID] {
		select {
		case sub <- comment:
		case <-time.After(publishTimeout):
			// подписчик не успевает, событие для него теряется
		}
	}
}
