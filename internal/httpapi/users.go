package httpapi

import (
	"net/http"

	"github.com/VitaminP8/blog/internal/auth"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	// пароль обратно не отдаем
	form := gin.H{"username": req.Username, "email": req.Email}

	user, err := h.users.RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, form)
		return
	}

	token, err := auth.IssueToken(h.secret, user)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, err := h.users.VerifyCredentials(req.Username, req.Password)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	token, err := auth.IssueToken(h.secret, user)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.GetUserByID(requester(c))
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
