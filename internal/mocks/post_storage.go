package mocks

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/VitaminP8/blog/internal/access"
	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/internal/post"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/VitaminP8/blog/models"
)

type MockPostStorage struct {
	mu     sync.Mutex
	posts    map[uint]*models.Post
	images   map[uint][]*models.PostImage // postID -> изображения
	likes    map[uint]map[uint]bool       // postID -> userID
	nextID   uint
	imageSeq uint

	// Err, если задан, возвращается из всех изменяющих методов
	Err error
}

func NewMockPostStorage() *MockPostStorage {
	return &MockPostStorage{
		posts:  make(map[uint]*models.Post),
		images: make(map[uint][]*models.PostImage),
		likes:  make(map[uint]map[uint]bool),
		nextID: 1,
	}
}

func (m *MockPostStorage) CreatePost(ownerID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if title == "" {
		return nil, apperr.Validation("title", "title required")
	}
	if body == "" {
		return nil, apperr.Validation("body", "body required")
	}
	if err := checkAttachments(attachments); err != nil {
		return nil, err
	}

	p := &models.Post{
		ID:        m.nextID,
		UUID:      fmt.Sprintf("post-%d", m.nextID),
		UserID:    ownerID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	m.nextID++
	m.posts[p.ID] = p
	m.addImages(p.ID, attachments)
	return p, nil
}

func (m *MockPostStorage) GetPostById(id uint) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return p, nil
}

func (m *MockPostStorage) GetPostDetails(postID, viewerID uint) (*post.Details, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &post.Details{
		Post:      p,
		Liked:     m.likes[postID][viewerID],
		LikeTotal: len(m.likes[postID]),
		Comments:  []*models.PostComment{},
		Images:    append([]*models.PostImage{}, m.images[postID]...),
	}, nil
}

func (m *MockPostStorage) ListPosts(filter post.ListFilter) (*pagination.Page[*models.Post], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	posts := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if filter.AuthorID != 0 && p.UserID != filter.AuthorID {
			continue
		}
		if !p.Public() && p.UserID != filter.ViewerID {
			continue
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })

	page := pagination.Paginate(posts, filter.Page, filter.Limit)
	return &page, nil
}

func (m *MockPostStorage) UpdatePost(postID, requesterID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.owned(postID, requesterID)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, apperr.Validation("title", "title required")
	}
	if err = checkAttachments(attachments); err != nil {
		return nil, err
	}

	p.Title = title
	p.Body = body
	m.addImages(postID, attachments)
	return p, nil
}

func (m *MockPostStorage) TogglePublic(postID, requesterID uint) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.owned(postID, requesterID)
	if err != nil {
		return nil, err
	}
	public := !p.Public()
	p.IsPublic = &public
	return p, nil
}

func (m *MockPostStorage) DeletePost(postID, requesterID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.owned(postID, requesterID); err != nil {
		return err
	}
	delete(m.posts, postID)
	delete(m.images, postID)
	delete(m.likes, postID)
	return nil
}

func (m *MockPostStorage) AttachImage(postID, requesterID uint, attachment upload.Attachment) (*models.PostImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.owned(postID, requesterID); err != nil {
		return nil, err
	}
	if err := checkAttachments([]upload.Attachment{attachment}); err != nil {
		return nil, err
	}
	images := m.addImages(postID, []upload.Attachment{attachment})
	return images[0], nil
}

func (m *MockPostStorage) ListImages(postID uint) ([]*models.PostImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*models.PostImage{}, m.images[postID]...), nil
}

func (m *MockPostStorage) DeleteImage(postID, imageID, requesterID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.owned(postID, requesterID); err != nil {
		return err
	}
	images := m.images[postID]
	for i, image := range images {
		if image.ID == imageID {
			m.images[postID] = append(images[:i], images[i+1:]...)
			return nil
		}
	}
	return apperr.ErrNotFound
}

func (m *MockPostStorage) ToggleLike(postID, requesterID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	if _, ok := m.posts[postID]; !ok {
		return false, apperr.ErrNotFound
	}
	if m.likes[postID] == nil {
		m.likes[postID] = make(map[uint]bool)
	}
	if m.likes[postID][requesterID] {
		delete(m.likes[postID], requesterID)
		return false, nil
	}
	m.likes[postID][requesterID] = true
	return true, nil
}

func (m *MockPostStorage) owned(postID, requesterID uint) (*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.posts[postID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := access.RequireOwner(p, requesterID, true); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *MockPostStorage) addImages(postID uint, attachments []upload.Attachment) []*models.PostImage {
	var added []*models.PostImage
	for _, att := range attachments {
		ext, _ := upload.Extension(att.Filename)
		if att.Content != nil {
			_, _ = io.Copy(io.Discard, att.Content)
		}
		m.imageSeq++
		image := &models.PostImage{
			ID:        m.imageSeq,
			PostID:    postID,
			Name:      fmt.Sprintf("image-%d.%s", m.imageSeq, ext),
			CreatedAt: time.Now(),
		}
		m.images[postID] = append(m.images[postID], image)
		added = append(added, image)
	}
	return added
}

func checkAttachments(attachments []upload.Attachment) error {
	for _, att := range attachments {
		if _, err := upload.Extension(att.Filename); err != nil {
			return err
		}
	}
	return nil
}
