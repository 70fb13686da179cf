package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Body string `json:"body" form:"body"`
}

func (h *Handler) ListComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	result, err := h.comments.ListComments(postID, page, limit)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AddComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	comment, err := h.comments.AddComment(postID, requester(c), req.Body)
	if err != nil {
		h.respondError(c, err, gin.H{"body": req.Body})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	commentID, ok := pathID(c, "commentId")
	if !ok {
		return
	}

	if err := h.comments.DeleteComment(postID, commentID, requester(c)); err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

// StreamComments отдает новые комментарии поста как server-sent events, пока клиент не отключится
func (h *Handler) StreamComments(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.posts.GetPostById(postID); err != nil {
		h.respondError(c, err, nil)
		return
	}

	ch, cancel := h.manager.Subscribe(postID)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	// заголовки уходят сразу, подписка к этому моменту уже оформлена
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case comment, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("comment", comment)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
