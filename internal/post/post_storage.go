package post

import (
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/VitaminP8/blog/models"
)

// Details - все, что нужно странице поста
type Details struct {
	Post      *models.Post          `json:"post"`
	Liked     bool                  `json:"liked"`
	LikeTotal int                   `json:"likeTotal"`
	Comments  []*models.PostComment `json:"comments"`
	Images    []*models.PostImage   `json:"images"`
}

// ListFilter - параметры ленты. AuthorID == 0 означает ленту всех авторов.
type ListFilter struct {
	ViewerID uint
	AuthorID uint
	Page     int
	Limit    int
}

type PostStorage interface {
	CreatePost(ownerID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error)
	GetPostById(id uint) (*models.Post, error)
	GetPostDetails(postID, viewerID uint) (*Details, error)
	ListPosts(filter ListFilter) (*pagination.Page[*models.Post], error)
	UpdatePost(postID, requesterID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error)
	TogglePublic(postID, requesterID uint) (*models.Post, error)
	DeletePost(postID, requesterID uint) error

	AttachImage(postID, requesterID uint, attachment upload.Attachment) (*models.PostImage, error)
	ListImages(postID uint) ([]*models.PostImage, error)
	DeleteImage(postID, imageID, requesterID uint) error

	ToggleLike(postID, requesterID uint) (bool, error)
}
