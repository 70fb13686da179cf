package models

import "time"

const TitleMaxLength = 50

type User struct {
	ID        uint       `gorm:"primary_key" json:"id"`
	UUID      string     `gorm:"column:uuid;unique_index;size:36" json:"uuid"`
	Username  string     `gorm:"unique_index;size:50;not null" json:"username"`
	Email     *string    `gorm:"size:100" json:"email,omitempty"`
	Password  string     `gorm:"not null" json:"-"`
	CreatedAt time.Time  `json:"created"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

type Post struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	UUID      string    `gorm:"column:uuid;unique_index;size:36" json:"uuid"`
	UserID    uint      `gorm:"index;not null" json:"authorId"`
	IsPublic  *bool     `json:"isPublic"`
	Title     string    `gorm:"size:50;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created"`
}

// OwnerID реализует access.Owned
func (p *Post) OwnerID() uint { return p.UserID }

// Public трактует NULL как приватный пост
func (p *Post) Public() bool { return p.IsPublic != nil && *p.IsPublic }

type PostImage struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"postId"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	CreatedAt time.Time `json:"created"`
}

type PostComment struct {
	ID        uint      `gorm:"primary_key" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"authorId"`
	PostID    uint      `gorm:"index;not null" json:"postId"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created"`
}

func (c *PostComment) OwnerID() uint { return c.UserID }

// PostLike - строка связи, уникальность пары гарантируется составным первичным ключом
type PostLike struct {
	PostID uint `gorm:"primary_key;auto_increment:false"`
	UserID uint `gorm:"primary_key;auto_increment:false"`
}

func (PostImage) TableName() string   { return "post_images" }
func (PostComment) TableName() string { return "post_comments" }
func (PostLike) TableName() string    { return "post_likes" }
