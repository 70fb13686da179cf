// Package httpapi - HTTP-адаптер над хранилищами: маршруты gin, JSON-ответы, загрузка файлов.
package httpapi

import (
	"time"

	"github.com/VitaminP8/blog/internal/auth"
	"github.com/VitaminP8/blog/internal/comment"
	"github.com/VitaminP8/blog/internal/post"
	"github.com/VitaminP8/blog/internal/subscription"
	"github.com/VitaminP8/blog/internal/user"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	users    user.UserStorage
	posts    post.PostStorage
	comments comment.CommentStorage
	manager  subscription.Manager
	logger   *zap.Logger
	secret   string
}

func NewHandler(
	users user.UserStorage,
	posts post.PostStorage,
	comments comment.CommentStorage,
	manager subscription.Manager,
	logger *zap.Logger,
	secret string,
) *Handler {
	return &Handler{
		users:    users,
		posts:    posts,
		comments: comments,
		manager:  manager,
		logger:   logger,
		secret:   secret,
	}
}

type RouterConfig struct {
	CORSOrigins []string
	// UploadDir раздается по /uploads авторизованным пользователям, если задан
	UploadDir string
}

func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(auth.Middleware(h.secret))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", auth.RequireUser(), h.Me)
	}

	r.GET("/posts", h.ListPosts)
	r.GET("/users/:uuid/posts", h.ListAuthorPosts)

	posts := r.Group("/posts", auth.RequireUser())
	{
		posts.POST("", h.CreatePost)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.UpdatePost)
		posts.POST("/:id/public", h.TogglePublic)
		posts.DELETE("/:id", h.DeletePost)

		posts.POST("/:id/images", h.AttachImage)
		posts.DELETE("/:id/images/:imageId", h.DeleteImage)

		posts.POST("/:id/like", h.ToggleLike)

		posts.GET("/:id/comments", h.ListComments)
		posts.GET("/:id/comments/stream", h.StreamComments)
		posts.POST("/:id/comments", h.AddComment)
		posts.DELETE("/:id/comments/:commentId", h.DeleteComment)
	}

	// вложения видят только вошедшие пользователи, как и страницу поста
	if cfg.UploadDir != "" {
		files := r.Group("", auth.RequireUser())
		files.Static("/uploads", cfg.UploadDir)
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
