package comment

import (
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/models"
)

type CommentStorage interface {
	AddComment(postID, requesterID uint, body string) (*models.PostComment, error)
	DeleteComment(postID, commentID, requesterID uint) error
	ListComments(postID uint, page, limit int) (*pagination.Page[*models.PostComment], error)
}
