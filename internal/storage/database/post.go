package database

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/VitaminP8/blog/internal/access"
	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/pagination"
	"github.com/VitaminP8/blog/internal/post"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/VitaminP8/blog/models"
	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	"go.uber.org/zap"
)

type PostStorage struct {
	db     *gorm.DB
	files  upload.Store
	logger *zap.Logger
}

func NewPostStorage(db *gorm.DB, files upload.Store, logger *zap.Logger) *PostStorage {
	return &PostStorage{db: db, files: files, logger: logger}
}

func validatePost(title, body string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title", "title required")
	}
	if utf8.RuneCountInString(title) > models.TitleMaxLength {
		return apperr.Validation("title", fmt.Sprintf("title must be at most %d characters", models.TitleMaxLength))
	}
	if strings.TrimSpace(body) == "" {
		return apperr.Validation("body", "body required")
	}
	return nil
}

// validateAttachments проверяет расширения до того, как хоть один файл попадет на диск
func validateAttachments(attachments []upload.Attachment) error {
	for _, att := range attachments {
		if _, err := upload.Extension(att.Filename); err != nil {
			return fmt.Errorf("%s: %w", att.Filename, err)
		}
	}
	return nil
}

func (s *PostStorage) CreatePost(ownerID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error) {
	if err := validatePost(title, body); err != nil {
		return nil, err
	}
	if err := validateAttachments(attachments); err != nil {
		return nil, err
	}

	p := &models.Post{
		UUID:   uuid.NewString(),
		UserID: ownerID,
		Title:  title,
		Body:   body,
	}

	var stored []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		for _, att := range attachments {
			image, err := s.storeImage(tx, p.ID, att)
			if err != nil {
				return err
			}
			stored = append(stored, image.Name)
		}
		return nil
	})
	if err != nil {
		s.removeFiles(stored)
		return nil, classify(s.logger, "create post", err)
	}

	return p, nil
}

func (s *PostStorage) GetPostById(id uint) (*models.Post, error) {
	return findPost(s.db, id)
}

func (s *PostStorage) GetPostDetails(postID, viewerID uint) (*post.Details, error) {
	p, err := findPost(s.db, postID)
	if err != nil {
		return nil, err
	}
	// детали поста видит любой авторизованный пользователь
	if err = access.RequireOwner(p, viewerID, false); err != nil {
		return nil, err
	}

	details := &post.Details{Post: p}

	var liked int
	err = s.db.Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", postID, viewerID).Count(&liked).Error
	if err != nil {
		return nil, fmt.Errorf("could not get like: %w", err)
	}
	details.Liked = liked > 0

	err = s.db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&details.LikeTotal).Error
	if err != nil {
		return nil, fmt.Errorf("could not count likes: %w", err)
	}

	details.Comments = []*models.PostComment{}
	err = s.db.Where("post_id = ?", postID).Order("created_at asc, id asc").Find(&details.Comments).Error
	if err != nil {
		return nil, fmt.Errorf("could not get comments: %w", err)
	}

	if details.Images, err = s.ListImages(postID); err != nil {
		return nil, err
	}

	return details, nil
}

// ListPosts отдает только публичные посты и собственные посты зрителя
func (s *PostStorage) ListPosts(filter post.ListFilter) (*pagination.Page[*models.Post], error) {
	q := s.db.Model(&models.Post{})
	if filter.AuthorID != 0 {
		q = q.Where("user_id = ?", filter.AuthorID)
	}
	q = q.Where("is_public = ? OR user_id = ?", true, filter.ViewerID)

	var count int
	if err := q.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("could not count posts: %w", err)
	}

	offset, info := pagination.Window(filter.Page, filter.Limit, count)
	posts := []*models.Post{}
	if offset < count {
		err := q.Order("created_at desc, id desc").Offset(offset).Limit(info.Limit).Find(&posts).Error
		if err != nil {
			return nil, fmt.Errorf("could not get posts: %w", err)
		}
	}

	return &pagination.Page[*models.Post]{Items: posts, Info: info}, nil
}

func (s *PostStorage) UpdatePost(postID, requesterID uint, title, body string, attachments ...upload.Attachment) (*models.Post, error) {
	var p *models.Post
	var stored []string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = s.ownedPost(tx, postID, requesterID); err != nil {
			return err
		}
		// права проверяются раньше содержимого: чужой пост - всегда Forbidden
		if err = validatePost(title, body); err != nil {
			return err
		}
		if err = validateAttachments(attachments); err != nil {
			return err
		}

		err = tx.Model(p).Updates(map[string]interface{}{"title": title, "body": body}).Error
		if err != nil {
			return err
		}
		for _, att := range attachments {
			image, err := s.storeImage(tx, p.ID, att)
			if err != nil {
				return err
			}
			stored = append(stored, image.Name)
		}
		return nil
	})
	if err != nil {
		s.removeFiles(stored)
		return nil, classify(s.logger, "update post", err)
	}

	p.Title = title
	p.Body = body
	return p, nil
}

func (s *PostStorage) TogglePublic(postID, requesterID uint) (*models.Post, error) {
	var p *models.Post
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if p, err = s.ownedPost(tx, postID, requesterID); err != nil {
			return err
		}

		public := !p.Public()
		if err = tx.Model(p).Update("is_public", public).Error; err != nil {
			return err
		}
		p.IsPublic = &public
		return nil
	})
	if err != nil {
		return nil, classify(s.logger, "toggle post visibility", err)
	}
	return p, nil
}

// DeletePost удаляет лайки, комментарии, изображения (строки и файлы) и сам пост одной транзакцией.
// Файлы удаляются до коммита: если диск отказал, строки остаются на месте.
func (s *PostStorage) DeletePost(postID, requesterID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := s.ownedPost(tx, postID, requesterID)
		if err != nil {
			return err
		}

		var images []*models.PostImage
		if err = tx.Where("post_id = ?", p.ID).Find(&images).Error; err != nil {
			return err
		}

		for _, dependent := range []interface{}{&models.PostLike{}, &models.PostComment{}, &models.PostImage{}} {
			if err = tx.Where("post_id = ?", p.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		if err = tx.Delete(p).Error; err != nil {
			return err
		}

		for _, image := range images {
			if err = s.deleteFile(image.Name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return classify(s.logger, "delete post", err)
	}
	return nil
}

func (s *PostStorage) AttachImage(postID, requesterID uint, attachment upload.Attachment) (*models.PostImage, error) {
	var image *models.PostImage
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedPost(tx, postID, requesterID); err != nil {
			return err
		}

		var err error
		image, err = s.storeImage(tx, postID, attachment)
		return err
	})
	if err != nil {
		if image != nil {
			// строка вставлена, но коммит не прошел
			s.removeFiles([]string{image.Name})
		}
		return nil, classify(s.logger, "attach image", err)
	}
	return image, nil
}

func (s *PostStorage) ListImages(postID uint) ([]*models.PostImage, error) {
	images := []*models.PostImage{}
	err := s.db.Where("post_id = ?", postID).Order("created_at asc, id asc").Find(&images).Error
	if err != nil {
		return nil, fmt.Errorf("could not get images: %w", err)
	}
	return images, nil
}

// DeleteImage сначала удаляет файл и только потом строку, чтобы не осталось ссылки на пропавший файл
func (s *PostStorage) DeleteImage(postID, imageID, requesterID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.ownedPost(tx, postID, requesterID); err != nil {
			return err
		}

		var image models.PostImage
		err := tx.Where("id = ? AND post_id = ?", imageID, postID).First(&image).Error
		if gorm.IsRecordNotFoundError(err) {
			return fmt.Errorf("image %d: %w", imageID, apperr.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err = s.deleteFile(image.Name); err != nil {
			return err
		}
		return tx.Delete(&image).Error
	})
	if err != nil {
		return classify(s.logger, "delete image", err)
	}
	return nil
}

// ToggleLike снимает лайк, если он был, иначе ставит. Возвращает итоговое состояние.
func (s *PostStorage) ToggleLike(postID, requesterID uint) (bool, error) {
	var liked bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, requesterID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		liked = true
		return tx.Create(&models.PostLike{PostID: postID, UserID: requesterID}).Error
	})
	if isUniqueViolation(err) {
		// параллельный запрос того же пользователя уже вставил строку
		return true, nil
	}
	if err != nil {
		return false, classify(s.logger, "toggle like", err)
	}
	return liked, nil
}

func (s *PostStorage) ownedPost(tx *gorm.DB, postID, requesterID uint) (*models.Post, error) {
	p, err := findPost(tx, postID)
	if err != nil {
		return nil, err
	}
	if err = access.RequireOwner(p, requesterID, true); err != nil {
		return nil, err
	}
	return p, nil
}

// storeImage сохраняет файл через адаптер и пишет строку; при ошибке вставки файл удаляется
func (s *PostStorage) storeImage(tx *gorm.DB, postID uint, att upload.Attachment) (*models.PostImage, error) {
	name, err := s.files.Store(att)
	if err != nil {
		return nil, err
	}

	image := &models.PostImage{PostID: postID, Name: name}
	if err = tx.Create(image).Error; err != nil {
		s.removeFiles([]string{name})
		return nil, err
	}
	return image, nil
}

func (s *PostStorage) deleteFile(name string) error {
	err := s.files.Delete(name)
	if errors.Is(err, upload.ErrFileNotFound) {
		s.logger.Warn("stored file already missing", zap.String("file", name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not delete stored file %s: %w", name, err)
	}
	return nil
}

func (s *PostStorage) removeFiles(names []string) {
	for _, name := range names {
		if err := s.files.Delete(name); err != nil && !errors.Is(err, upload.ErrFileNotFound) {
			s.logger.Error("could not remove stored file after rollback", zap.String("file", name), zap.Error(err))
		}
	}
}
