package subscription

import "github.com/VitaminP8/blog/models"

type Manager interface {
	Subscribe(postID uint) (<-chan *models.PostComment, func())
	Publish(postID uint, comment *models.PostComment)
}
