package database

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/VitaminP8/blog/internal/access"
	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/internal/subscription"
	"github.com/VitaminP8/blog/models"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

const CommentMaxLength = 2000

type CommentStorage struct {
	db      *gorm.DB
	manager subscription.Manager
	logger  *zap.Logger
}

func NewCommentStorage(db *gorm.DB, manager subscription.Manager, logger *zap.Logger) *CommentStorage {
	return &CommentStorage{db: db, manager: manager, logger: logger}
}

func (s *CommentStorage) AddComment(postID, requesterID uint, body string) (*models.PostComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.Validation("body", "body required")
	}
	if utf8.RuneCountInString(body) > CommentMaxLength {
		return nil, apperr.Validation("body", fmt.Sprintf("body must be at most %d characters", CommentMaxLength))
	}

	comment := &models.PostComment{
		UserID: requesterID,
		PostID: postID,
		Body:   body,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findPost(tx, postID); err != nil {
			return err
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, classify(s.logger, "create comment", err)
	}

	// подписчики узнают о комментарии только после коммита
	if s.manager != nil {
		s.manager.Publish(postID, comment)
	}

	return comment, nil
}

// DeleteComment разрешено только автору комментария, не владельцу поста
func (s *CommentStorage) DeleteComment(postID, commentID, requesterID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var comment models.PostComment
		err := tx.Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
		if gorm.IsRecordNotFoundError(err) {
			return fmt.Errorf("comment %d: %w", commentID, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err = access.RequireOwner(&comment, requesterID, true); err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		return classify(s.logger, "delete comment", err)
	}
	return nil
}

// ListComments - комментарии поста от старых к новым
func (s *CommentStorage) ListComments(postID uint, page, limit int) (*pagination.Page[*models.PostComment], error) {
	if _, err := findPost(s.db, postID); err != nil {
		return nil, err
	}

	q := s.db.Model(&models.PostComment{}).Where("post_id = ?", postID)

	var count int
	if err := q.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("could not count comments: %w", err)
	}

	offset, info := pagination.Window(page, limit, count)
	comments := []*models.PostComment{}
	if offset < count {
		err := q.Order("created_at asc, id asc").Offset(offset).Limit(info.Limit).Find(&comments).Error
		if err != nil {
			return nil, fmt.Errorf("could not get comments: %w", err)
		}
	}

	return &pagination.Page[*models.PostComment]{Items: comments, Info: info}, nil
}
