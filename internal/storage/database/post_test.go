package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/post"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/VitaminP8/blog/models"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// createTestPost создает тестовый пост напрямую и возвращает его ID
func createTestPost(t *testing.T, db *gorm.DB, userID uint, title string, public bool) uint {
	p := &models.Post{
		UUID:     fmt.Sprintf("post-%d-%s", userID, title),
		UserID:   userID,
		IsPublic: &public,
		Title:    title,
		Body:     "body of " + title,
	}

	err := db.Create(p).Error
	require.NoError(t, err, "Failed to create test post")

	return p.ID
}

func attachment(name, content string) upload.Attachment {
	return upload.Attachment{Filename: name, Content: strings.NewReader(content)}
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int {
	var count int
	require.NoError(t, db.Model(model).Where(where, args...).Count(&count).Error)
	return count
}

func TestPostStorage_CreatePost(t *testing.T) {
	t.Run("Success post creation", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		p, err := storage.CreatePost(userID, "Test Post Title", "This is a test post content")
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
		assert.Len(t, p.UUID, 36)
		assert.Equal(t, userID, p.UserID)
		assert.False(t, p.Public())

		// Проверяем, что пост действительно создался в БД
		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, p.ID).Error)
		assert.Equal(t, "Test Post Title", dbPost.Title)
		assert.Equal(t, "This is a test post content", dbPost.Body)
	})

	t.Run("Validation errors", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		cases := []struct {
			name  string
			title string
			body  string
			field string
		}{
			{"empty title", "", "body", "title"},
			{"blank title", "   ", "body", "title"},
			{"long title", strings.Repeat("a", models.TitleMaxLength+1), "body", "title"},
			{"empty body", "title", "", "body"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := storage.CreatePost(userID, tc.title, tc.body)
				require.ErrorIs(t, err, apperr.ErrValidation)

				var vErr *apperr.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tc.field, vErr.Field)
			})
		}

		assert.Equal(t, 0, countRows(t, db, &models.Post{}, "1 = 1"))
	})

	t.Run("Title length is counted in characters", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		_, err := storage.CreatePost(userID, strings.Repeat("ж", models.TitleMaxLength), "body")
		assert.NoError(t, err)
	})

	t.Run("With attachments", func(t *testing.T) {
		storage, db, files := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		p, err := storage.CreatePost(userID, "title", "body", attachment("photo.JPG", "jpeg"), attachment("notes.txt", "text"))
		require.NoError(t, err)

		images, err := storage.ListImages(p.ID)
		require.NoError(t, err)
		require.Len(t, images, 2)
		assert.True(t, strings.HasSuffix(images[0].Name, ".jpg"))
		assert.True(t, strings.HasSuffix(images[1].Name, ".txt"))
		assert.FileExists(t, files.Path(images[0].Name))
	})

	t.Run("Rejected attachment creates nothing", func(t *testing.T) {
		storage, db, files := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		_, err := storage.CreatePost(userID, "title", "body", attachment("photo.png", "png"), attachment("virus.exe", "MZ"))
		assert.ErrorIs(t, err, apperr.ErrRejectedExtension)

		assert.Equal(t, 0, countRows(t, db, &models.Post{}, "1 = 1"))
		entries, err := os.ReadDir(files.Dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestPostStorage_GetPost(t *testing.T) {
	storage, db, _ := newTestPostStorage(t)
	ownerID := createTestUser(t, db, "owner")
	viewerID := createTestUser(t, db, "viewer")
	postID := createTestPost(t, db, ownerID, "Details", false)

	t.Run("Get by id", func(t *testing.T) {
		p, err := storage.GetPostById(postID)
		require.NoError(t, err)
		assert.Equal(t, "Details", p.Title)
	})

	t.Run("Post not found", func(t *testing.T) {
		_, err := storage.GetPostById(999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = storage.GetPostDetails(999, viewerID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Details with likes and comments", func(t *testing.T) {
		_, err := storage.ToggleLike(postID, ownerID)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.PostComment{PostID: postID, UserID: viewerID, Body: "first"}).Error)
		require.NoError(t, db.Create(&models.PostComment{PostID: postID, UserID: ownerID, Body: "second"}).Error)

		details, err := storage.GetPostDetails(postID, viewerID)
		require.NoError(t, err)
		assert.False(t, details.Liked)
		assert.Equal(t, 1, details.LikeTotal)
		require.Len(t, details.Comments, 2)
		assert.Equal(t, "first", details.Comments[0].Body)
		assert.Equal(t, "second", details.Comments[1].Body)
		assert.Empty(t, details.Images)

		details, err = storage.GetPostDetails(postID, ownerID)
		require.NoError(t, err)
		assert.True(t, details.Liked)
	})
}

func TestPostStorage_ListPosts(t *testing.T) {
	t.Run("Second page of a public feed", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")

		var ids []uint
		for i := 1; i <= 7; i++ {
			ids = append(ids, createTestPost(t, db, userID, fmt.Sprintf("Post %d", i), true))
		}

		page, err := storage.ListPosts(post.ListFilter{Page: 2, Limit: 5})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 6, page.Info.Start)
		assert.Equal(t, 7, page.Info.End)
		assert.Equal(t, 7, page.Info.Count)
		assert.Equal(t, 2, page.Info.PageCount)

		// новые посты первыми, значит на второй странице два самых старых
		assert.Equal(t, ids[1], page.Items[0].ID)
		assert.Equal(t, ids[0], page.Items[1].ID)
	})

	t.Run("Empty feed", func(t *testing.T) {
		storage, _, _ := newTestPostStorage(t)

		page, err := storage.ListPosts(post.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.Info.Count)
		assert.Equal(t, 0, page.Info.PageCount)
		assert.Equal(t, 1, page.Info.Page)
		assert.Equal(t, 5, page.Info.Limit)
	})

	t.Run("Private posts are visible only to the author", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		aliceID := createTestUser(t, db, "alice")
		bobID := createTestUser(t, db, "bob")
		createTestPost(t, db, aliceID, "public", true)
		createTestPost(t, db, aliceID, "private", false)
		createTestPost(t, db, bobID, "bob public", true)

		page, err := storage.ListPosts(post.ListFilter{ViewerID: bobID})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Info.Count)
		for _, p := range page.Items {
			assert.NotEqual(t, "private", p.Title)
		}

		page, err = storage.ListPosts(post.ListFilter{ViewerID: aliceID})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Info.Count)

		page, err = storage.ListPosts(post.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Info.Count)
	})

	t.Run("Filter by author", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		aliceID := createTestUser(t, db, "alice")
		bobID := createTestUser(t, db, "bob")
		createTestPost(t, db, aliceID, "public", true)
		createTestPost(t, db, aliceID, "private", false)
		createTestPost(t, db, bobID, "bob public", true)

		page, err := storage.ListPosts(post.ListFilter{ViewerID: bobID, AuthorID: aliceID})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "public", page.Items[0].Title)

		page, err = storage.ListPosts(post.ListFilter{ViewerID: aliceID, AuthorID: aliceID})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("Page past the end", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		userID := createTestUser(t, db, "author")
		createTestPost(t, db, userID, "only", true)

		page, err := storage.ListPosts(post.ListFilter{Page: 3, Limit: 5})
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 1, page.Info.PageCount)
	})
}

func TestPostStorage_UpdatePost(t *testing.T) {
	storage, db, _ := newTestPostStorage(t)
	ownerID := createTestUser(t, db, "owner")
	otherID := createTestUser(t, db, "other")
	postID := createTestPost(t, db, ownerID, "Original", false)

	t.Run("Owner updates", func(t *testing.T) {
		p, err := storage.UpdatePost(postID, ownerID, "Updated", "new body")
		require.NoError(t, err)
		assert.Equal(t, "Updated", p.Title)

		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, postID).Error)
		assert.Equal(t, "Updated", dbPost.Title)
		assert.Equal(t, "new body", dbPost.Body)
	})

	t.Run("Other user is forbidden even with invalid input", func(t *testing.T) {
		_, err := storage.UpdatePost(postID, otherID, "", "")
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		_, err = storage.UpdatePost(postID, otherID, "Hijacked", "body")
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, postID).Error)
		assert.Equal(t, "Updated", dbPost.Title)
	})

	t.Run("Owner with invalid input", func(t *testing.T) {
		_, err := storage.UpdatePost(postID, ownerID, "", "body")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("Missing post", func(t *testing.T) {
		_, err := storage.UpdatePost(999, ownerID, "t", "b")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Rejected attachment rolls back the update", func(t *testing.T) {
		_, err := storage.UpdatePost(postID, ownerID, "Again", "body", attachment("run.sh", "#!"))
		assert.ErrorIs(t, err, apperr.ErrRejectedExtension)

		var dbPost models.Post
		require.NoError(t, db.First(&dbPost, postID).Error)
		assert.Equal(t, "Updated", dbPost.Title)
	})
}

func TestPostStorage_TogglePublic(t *testing.T) {
	storage, db, _ := newTestPostStorage(t)
	ownerID := createTestUser(t, db, "owner")
	otherID := createTestUser(t, db, "other")
	postID := createTestPost(t, db, ownerID, "Toggle", false)

	p, err := storage.TogglePublic(postID, ownerID)
	require.NoError(t, err)
	assert.True(t, p.Public())

	p, err = storage.TogglePublic(postID, ownerID)
	require.NoError(t, err)
	assert.False(t, p.Public())

	_, err = storage.TogglePublic(postID, otherID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// NULL трактуется как приватный
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", postID).Update("is_public", gorm.Expr("NULL")).Error)
	p, err = storage.TogglePublic(postID, ownerID)
	require.NoError(t, err)
	assert.True(t, p.Public())
}

func TestPostStorage_DeletePost(t *testing.T) {
	t.Run("Cascade to likes comments and images", func(t *testing.T) {
		storage, db, files := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")
		otherID := createTestUser(t, db, "other")

		p, err := storage.CreatePost(ownerID, "doomed", "body", attachment("a.png", "png"))
		require.NoError(t, err)
		keep := createTestPost(t, db, ownerID, "keep", true)

		_, err = storage.ToggleLike(p.ID, otherID)
		require.NoError(t, err)
		_, err = storage.ToggleLike(keep, otherID)
		require.NoError(t, err)
		require.NoError(t, db.Create(&models.PostComment{PostID: p.ID, UserID: otherID, Body: "bye"}).Error)

		images, err := storage.ListImages(p.ID)
		require.NoError(t, err)
		require.Len(t, images, 1)

		require.NoError(t, storage.DeletePost(p.ID, ownerID))

		_, err = storage.GetPostById(p.ID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		assert.Equal(t, 0, countRows(t, db, &models.PostLike{}, "post_id = ?", p.ID))
		assert.Equal(t, 0, countRows(t, db, &models.PostComment{}, "post_id = ?", p.ID))
		assert.Equal(t, 0, countRows(t, db, &models.PostImage{}, "post_id = ?", p.ID))
		assert.NoFileExists(t, files.Path(images[0].Name))

		// чужие данные не задеты
		assert.Equal(t, 1, countRows(t, db, &models.PostLike{}, "post_id = ?", keep))
	})

	t.Run("Missing file does not block deletion", func(t *testing.T) {
		storage, db, files := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")

		p, err := storage.CreatePost(ownerID, "title", "body", attachment("a.gif", "gif"))
		require.NoError(t, err)
		images, err := storage.ListImages(p.ID)
		require.NoError(t, err)
		require.NoError(t, os.Remove(filepath.Join(files.Dir, images[0].Name)))

		assert.NoError(t, storage.DeletePost(p.ID, ownerID))
	})

	t.Run("Other user is forbidden", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")
		otherID := createTestUser(t, db, "other")
		postID := createTestPost(t, db, ownerID, "mine", true)

		assert.ErrorIs(t, storage.DeletePost(postID, otherID), apperr.ErrForbidden)
		_, err := storage.GetPostById(postID)
		assert.NoError(t, err)
	})

	t.Run("Constraint violation becomes a conflict and rolls back", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")
		postID := createTestPost(t, db, ownerID, "pinned", true)
		require.NoError(t, db.Create(&models.PostComment{PostID: postID, UserID: ownerID, Body: "stays"}).Error)

		// посторонняя таблица, которая ссылается на пост и не знает о каскаде
		require.NoError(t, db.Exec("CREATE TABLE pins (post_id integer NOT NULL REFERENCES posts(id))").Error)
		require.NoError(t, db.Exec("INSERT INTO pins (post_id) VALUES (?)", postID).Error)

		err := storage.DeletePost(postID, ownerID)
		assert.ErrorIs(t, err, apperr.ErrConflict)
		assert.NotContains(t, err.Error(), "FOREIGN KEY")

		_, err = storage.GetPostById(postID)
		assert.NoError(t, err)
		assert.Equal(t, 1, countRows(t, db, &models.PostComment{}, "post_id = ?", postID))
	})
}

func TestPostStorage_Images(t *testing.T) {
	storage, db, files := newTestPostStorage(t)
	ownerID := createTestUser(t, db, "owner")
	otherID := createTestUser(t, db, "other")
	postID := createTestPost(t, db, ownerID, "gallery", true)

	t.Run("Rejected extension", func(t *testing.T) {
		_, err := storage.AttachImage(postID, ownerID, attachment("virus.exe", "MZ"))
		assert.ErrorIs(t, err, apperr.ErrRejectedExtension)
		assert.Equal(t, 0, countRows(t, db, &models.PostImage{}, "post_id = ?", postID))
	})

	t.Run("Extension is normalized", func(t *testing.T) {
		image, err := storage.AttachImage(postID, ownerID, attachment("photo.JPG", "jpeg"))
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(image.Name, ".jpg"))
		assert.FileExists(t, files.Path(image.Name))
	})

	t.Run("Other user cannot attach or delete", func(t *testing.T) {
		_, err := storage.AttachImage(postID, otherID, attachment("x.png", "png"))
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		images, err := storage.ListImages(postID)
		require.NoError(t, err)
		require.Len(t, images, 1)

		err = storage.DeleteImage(postID, images[0].ID, otherID)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
		assert.FileExists(t, files.Path(images[0].Name))
	})

	t.Run("Owner deletes image", func(t *testing.T) {
		images, err := storage.ListImages(postID)
		require.NoError(t, err)
		require.Len(t, images, 1)

		require.NoError(t, storage.DeleteImage(postID, images[0].ID, ownerID))
		assert.NoFileExists(t, files.Path(images[0].Name))
		assert.Equal(t, 0, countRows(t, db, &models.PostImage{}, "post_id = ?", postID))
	})

	t.Run("Image of another post", func(t *testing.T) {
		otherPost := createTestPost(t, db, ownerID, "second", true)
		image, err := storage.AttachImage(otherPost, ownerID, attachment("doc.pdf", "pdf"))
		require.NoError(t, err)

		err = storage.DeleteImage(postID, image.ID, ownerID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestPostStorage_ToggleLike(t *testing.T) {
	t.Run("Toggle twice", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")
		likerID := createTestUser(t, db, "liker")
		postID := createTestPost(t, db, ownerID, "likeable", true)

		liked, err := storage.ToggleLike(postID, likerID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, countRows(t, db, &models.PostLike{}, "post_id = ?", postID))

		liked, err = storage.ToggleLike(postID, likerID)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, countRows(t, db, &models.PostLike{}, "post_id = ?", postID))
	})

	t.Run("Missing post", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		likerID := createTestUser(t, db, "liker")

		_, err := storage.ToggleLike(999, likerID)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Concurrent toggles keep at most one row", func(t *testing.T) {
		storage, db, _ := newTestPostStorage(t)
		ownerID := createTestUser(t, db, "owner")
		likerID := createTestUser(t, db, "liker")
		postID := createTestPost(t, db, ownerID, "contended", true)

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := storage.ToggleLike(postID, likerID); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.LessOrEqual(t, countRows(t, db, &models.PostLike{}, "post_id = ? AND user_id = ?", postID, likerID), 1)
	})
}

// failingDeleteStore сохраняет файлы на диск, но удалить их не может
type failingDeleteStore struct {
	*upload.LocalStore
}

func (s failingDeleteStore) Delete(name string) error {
	return fmt.Errorf("remove %s: %w", name, syscall.EIO)
}

func TestPostStorage_FileRemovalFailure(t *testing.T) {
	db := setupTestDB(t)
	local, err := upload.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	storage := NewPostStorage(db, failingDeleteStore{LocalStore: local}, zap.NewNop())

	ownerID := createTestUser(t, db, "owner")
	likerID := createTestUser(t, db, "liker")

	p, err := storage.CreatePost(ownerID, "stuck", "body", attachment("a.png", "png"))
	require.NoError(t, err)
	_, err = storage.ToggleLike(p.ID, likerID)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.PostComment{PostID: p.ID, UserID: likerID, Body: "stays"}).Error)

	images, err := storage.ListImages(p.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)

	t.Run("DeleteImage keeps the row", func(t *testing.T) {
		err := storage.DeleteImage(p.ID, images[0].ID, ownerID)
		require.Error(t, err)
		assert.ErrorIs(t, err, syscall.EIO)

		assert.Equal(t, 1, countRows(t, db, &models.PostImage{}, "id = ?", images[0].ID))
		assert.FileExists(t, local.Path(images[0].Name))
	})

	t.Run("DeletePost rolls back", func(t *testing.T) {
		err := storage.DeletePost(p.ID, ownerID)
		require.Error(t, err)
		assert.ErrorIs(t, err, syscall.EIO)

		_, err = storage.GetPostById(p.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, countRows(t, db, &models.PostImage{}, "post_id = ?", p.ID))
		assert.Equal(t, 1, countRows(t, db, &models.PostComment{}, "post_id = ?", p.ID))
		assert.Equal(t, 1, countRows(t, db, &models.PostLike{}, "post_id = ?", p.ID))
	})
}
