package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/VitaminP8/blog/internal/apperr"
	"github.com/VitaminP8/blog/internal/post"
	"github.com/VitaminP8/blog/internal/upload"
	"github.com/gin-gonic/gin"
)

// formAttachments открывает необязательный файл из поля "file" multipart-формы
func formAttachments(c *gin.Context) ([]upload.Attachment, func(), error) {
	noop := func() {}

	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, apperr.Validation("file", "could not read uploaded file")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("could not open uploaded file: %w", err)
	}

	return []upload.Attachment{{Filename: fh.Filename, Content: f}}, func() { f.Close() }, nil
}

func (h *Handler) ListPosts(c *gin.Context) {
	page, limit := pageParams(c)

	result, err := h.posts.ListPosts(post.ListFilter{
		ViewerID: requester(c),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAuthorPosts - блог одного автора; isOwn говорит странице, показывать ли кнопки редактирования
func (h *Handler) ListAuthorPosts(c *gin.Context) {
	author, err := h.users.FindByUUID(c.Param("uuid"))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	viewerID := requester(c)
	page, limit := pageParams(c)

	result, err := h.posts.ListPosts(post.ListFilter{
		ViewerID: viewerID,
		AuthorID: author.ID,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"author":   author,
		"isOwn":    viewerID != 0 && viewerID == author.ID,
		"items":    result.Items,
		"pageInfo": result.Info,
	})
}

func (h *Handler) CreatePost(c *gin.Context) {
	title, body := c.PostForm("title"), c.PostForm("body")
	form := gin.H{"title": title, "body": body}

	attachments, closeFiles, err := formAttachments(c)
	if err != nil {
		h.respondError(c, err, form)
		return
	}
	defer closeFiles()

	p, err := h.posts.CreatePost(requester(c), title, body, attachments...)
	if err != nil {
		h.respondError(c, err, form)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	details, err := h.posts.GetPostDetails(postID, requester(c))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	title, body := c.PostForm("title"), c.PostForm("body")
	form := gin.H{"title": title, "body": body}

	attachments, closeFiles, err := formAttachments(c)
	if err != nil {
		h.respondError(c, err, form)
		return
	}
	defer closeFiles()

	p, err := h.posts.UpdatePost(postID, requester(c), title, body, attachments...)
	if err != nil {
		h.respondError(c, err, form)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) TogglePublic(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.posts.TogglePublic(postID, requester(c))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePost(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.posts.DeletePost(postID, requester(c)); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AttachImage(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	attachments, closeFiles, err := formAttachments(c)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	defer closeFiles()
	if len(attachments) == 0 {
		h.respondError(c, apperr.Validation("file", "file required"), nil)
		return
	}

	image, err := h.posts.AttachImage(postID, requester(c), attachments[0])
	if err != nil {
		h.respondError(c, err, gin.H{"file": attachments[0].Filename})
		return
	}
	c.JSON(http.StatusCreated, image)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	imageID, ok := pathID(c, "imageId")
	if !ok {
		return
	}

	if err := h.posts.DeleteImage(postID, imageID, requester(c)); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ToggleLike(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	liked, err := h.posts.ToggleLike(postID, requester(c))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
